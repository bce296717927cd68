package widgets

import (
	"github.com/SAP-F-2025/assessment-review/internal/models"
)

// MarkIndex translates between annotation identity (mark id) and respondent
// identity (user id) for the marks of one marker question.
type MarkIndex struct {
	marks        []models.Mark
	byID         map[string]int
	byRespondent map[string]int
	duplicates   []string
}

// NewMarkIndex indexes marks. When several marks share a respondent the
// first one in declaration order wins.
func NewMarkIndex(marks []models.Mark) *MarkIndex {
	idx := &MarkIndex{
		marks:        marks,
		byID:         make(map[string]int, len(marks)),
		byRespondent: make(map[string]int, len(marks)),
	}
	for i, mark := range marks {
		if _, ok := idx.byID[mark.ID]; !ok {
			idx.byID[mark.ID] = i
		}
		if mark.RespondentID == "" {
			continue
		}
		if _, ok := idx.byRespondent[mark.RespondentID]; ok {
			idx.duplicates = appendUnique(idx.duplicates, mark.RespondentID)
			continue
		}
		idx.byRespondent[mark.RespondentID] = i
	}
	return idx
}

// ByID returns the mark with the given id.
func (idx *MarkIndex) ByID(markID string) (models.Mark, bool) {
	i, ok := idx.byID[markID]
	if !ok {
		return models.Mark{}, false
	}
	return idx.marks[i], true
}

// ByRespondent returns the first mark produced by userID.
func (idx *MarkIndex) ByRespondent(userID string) (models.Mark, bool) {
	i, ok := idx.byRespondent[userID]
	if !ok {
		return models.Mark{}, false
	}
	return idx.marks[i], true
}

// DuplicateRespondents lists respondent ids owning more than one mark.
func (idx *MarkIndex) DuplicateRespondents() []string {
	return idx.duplicates
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
