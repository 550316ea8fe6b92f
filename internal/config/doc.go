// Package config provides configuration structures and utilities for phishscan.
// It defines the classifier connection, the extension API listener, the
// command line scanner's report preferences, and the optional YAML file that
// tunes trusted domains, feature keyword lists and the alert message.
package config
