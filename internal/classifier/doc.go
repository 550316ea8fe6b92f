// Package classifier talks to the remote phishing classifier.
//
// The classifier is an HTTP service with a single endpoint:
//
//	POST {base}/analyze
//
// The request body is the feature record as a flat JSON object. The response
// carries the verdict and, optionally, a per-feature explanation:
//
//	{
//	  "prediction": "phishing",
//	  "top_shap_features": {"URLLength": {"shap_value": 0.8, "explanation": "Length of the URL"}},
//	  "shap_explanation": {"URLLength": 0.8, "IsHTTPS": -0.1}
//	}
//
// Only "prediction" is required. Any other verdict string is carried
// verbatim; deciding what it means is up to the caller.
//
// Design decision: The client does not retry. A missed analysis is the same
// as a benign verdict from the user's point of view, and retrying a hung
// classifier would only pile up requests behind it.
package classifier
