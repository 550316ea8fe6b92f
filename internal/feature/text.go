package feature

import (
	"regexp"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

var (
	popupPattern     = regexp.MustCompile(`(?i)popup`)
	copyrightPattern = regexp.MustCompile(`(?i)©|copyright`)
)

// textShapeExtractor derives LineOfCode and LargestLineLength from the
// visible text. Empty text has no lines.
type textShapeExtractor struct{}

func (textShapeExtractor) Name() string { return "text_shape" }

func (textShapeExtractor) Extract(in *Input) []model.Feature {
	text := in.Snapshot.DOMText
	if text == "" {
		return []model.Feature{
			model.Count(LineOfCode, 0),
			model.Count(LargestLineLength, 0),
		}
	}

	lines := strings.Split(text, "\n")
	longest := 0
	for _, line := range lines {
		longest = max(longest, jsLength(line))
	}

	return []model.Feature{
		model.Count(LineOfCode, len(lines)),
		model.Count(LargestLineLength, longest),
	}
}

// popupExtractor derives NoOfPopup: mentions of "popup" in the visible text.
type popupExtractor struct{}

func (popupExtractor) Name() string { return "popups" }

func (popupExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Count(NoOfPopup, countMatches(popupPattern, in.Snapshot.DOMText))}
}

// copyrightExtractor derives HasCopyrightInfo.
type copyrightExtractor struct{}

func (copyrightExtractor) Name() string { return "copyright" }

func (copyrightExtractor) Extract(in *Input) []model.Feature {
	return []model.Feature{model.Flag(HasCopyrightInfo, copyrightPattern.MatchString(in.Snapshot.DOMText))}
}
