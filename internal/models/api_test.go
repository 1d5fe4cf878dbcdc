package models

import (
	"testing"
	"time"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ask ok", (&AskRequest{DocID: "d", Question: "q"}).Validate(), ""},
		{"ask missing doc", (&AskRequest{Question: "q"}).Validate(), "doc_id is required"},
		{"ask blank doc", (&AskRequest{DocID: "  ", Question: "q"}).Validate(), "doc_id is required"},
		{"ask missing question", (&AskRequest{DocID: "d", Question: " \n"}).Validate(), "question is required"},
		{"summary ok", (&SummaryRequest{DocID: "d"}).Validate(), ""},
		{"summary missing doc", (&SummaryRequest{}).Validate(), "doc_id is required"},
		{"search ok", (&SearchRequest{DocID: "d", Query: "x"}).Validate(), ""},
		{"search missing query", (&SearchRequest{DocID: "d"}).Validate(), "query is required"},
		{"search negative k", (&SearchRequest{DocID: "d", Query: "x", TopK: -1}).Validate(), "top_k must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Validate() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDocument_Expired(t *testing.T) {
	now := time.Now()
	d := &Document{}
	if d.Expired(now) {
		t.Error("zero ExpiresAt should never expire")
	}
	d.ExpiresAt = now.Add(time.Minute)
	if d.Expired(now) {
		t.Error("future deadline should not be expired")
	}
	if !d.Expired(now.Add(time.Minute)) {
		t.Error("deadline reached should be expired")
	}
}

func TestDocument_InfoAndTexts(t *testing.T) {
	d := &Document{
		ID:     "abc",
		Status: StatusIndexed,
		Chunks: []*Chunk{{Index: 0, Text: "one"}, {Index: 1, Text: "two"}},
	}
	info := d.Info()
	if info.NumChunks != 2 || info.ID != "abc" {
		t.Errorf("Info() = %+v", info)
	}
	texts := d.Texts()
	if len(texts) != 2 || texts[0] != "one" || texts[1] != "two" {
		t.Errorf("Texts() = %v", texts)
	}
}
