package stub

import (
	"bytes"
	"html/template"
	"sync"
)

// Issue is a forum thread.
type Issue struct {
	ID     string
	Title  string
	Author string
	Body   string
}

var issueTmpl = template.Must(template.New("issue").Parse(
	`<h5 class="issue-title">{{.Title}}</h5><p class="issue-author">{{.Author}}</p><div class="issue-body">{{.Body}}</div>`))

// Forum serves issue fragments.
type Forum struct {
	mu     sync.RWMutex
	issues map[string]Issue
}

func NewForum(issues ...Issue) *Forum {
	f := &Forum{issues: make(map[string]Issue)}
	for _, issue := range issues {
		f.issues[issue.ID] = issue
	}
	return f
}

// DefaultIssues seeds the stub forum.
func DefaultIssues() []Issue {
	return []Issue{
		{ID: "1", Title: "Projector in room 204 is broken", Author: "student01", Body: "It flickers during every lecture."},
		{ID: "2", Title: "Library wifi drops at noon", Author: "student02", Body: "Happens every day around lunch."},
	}
}

// Fragment renders the issue body for the modal, or false for unknown ids.
func (f *Forum) Fragment(id string) (string, bool, error) {
	f.mu.RLock()
	issue, ok := f.issues[id]
	f.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := issueTmpl.Execute(&buf, issue); err != nil {
		return "", true, err
	}
	return buf.String(), true, nil
}
