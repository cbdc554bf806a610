package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// PrivilegedRole is the role that may see every segment regardless of its tag.
const PrivilegedRole = "manager"

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentKey derives the storage key shared by every segment of a
// (document name, role) pair.
func DocumentKey(documentName, role string) ID {
	return IDFromContent(documentName + "\x00" + role)
}

// Segment is one bounded window of a document's text, tagged with the role
// that may read it.
type Segment struct {
	ID             string
	DocumentName   string
	SequenceNumber int
	Content        string
	Role           string
	Keywords       []string
	Summary        string
	CreatedAt      time.Time // Set by the store on insert
}

// KeywordOverlap counts how many of keywords appear in the segment's keyword set.
func (s *Segment) KeywordOverlap(keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if slices.Contains(s.Keywords, kw) {
			count++
		}
	}
	return count
}

// Document describes one ingested (name, role) pair.
type Document struct {
	Name      string
	Role      string
	Segments  int
	CreatedAt time.Time
}

// Enrichment is the keyword/summary pair attached to a segment. Both fields
// are empty when enrichment failed.
type Enrichment struct {
	Keywords []string
	Summary  string
}

func (e Enrichment) IsEmpty() bool {
	return len(e.Keywords) == 0 && e.Summary == ""
}

// RoleAssignment maps a requester identity to the roles it holds.
type RoleAssignment struct {
	ID        string
	User      string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *RoleAssignment) HasRole(role string) bool {
	return slices.Contains(r.Roles, role)
}

// Requester is the identity a query runs on behalf of.
type Requester struct {
	User  string
	Roles []string
}

// CanSee reports whether a segment tagged with role is visible to the requester.
func (r Requester) CanSee(role, privileged string) bool {
	for _, held := range r.Roles {
		if held == role || (privileged != "" && held == privileged) {
			return true
		}
	}
	return false
}

// Query is a natural-language question asked by a user.
type Query struct {
	Text string
	User string
}

// Answer is the result of a query. Empty is set when no segment matched,
// which is distinct from a synthesis failure.
type Answer struct {
	Text         string
	MatchedCount int
	UsedCount    int
	Keywords     []string
	Empty        bool
}
