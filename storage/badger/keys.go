package badger

import (
	"encoding/binary"

	"github.com/poiesic/docsift/core"
)

// Key prefixes for different data types
const (
	segmentRecordPrefix   = "segrec"
	segmentDocumentPrefix = "segdoc"
	roleRecordPrefix      = "rolerec"
	roleUserPrefix        = "roleusr"
)

// makeSegmentKey generates the key of one segment.
// Format: prefix:docKey:sequence
func makeSegmentKey(docKey core.ID, sequence int) []byte {
	prefix := []byte(segmentRecordPrefix + ":")
	buf := make([]byte, len(prefix)+12) // 8 bytes for docKey + 4 bytes for sequence
	offset := copy(buf, prefix)
	// Write in BigEndian order so segments of a document iterate in sequence
	binary.BigEndian.PutUint64(buf[offset:], uint64(docKey))
	offset += 8
	binary.BigEndian.PutUint32(buf[offset:], uint32(sequence))
	return buf
}

// makePartialSegmentKey generates the prefix shared by a document's segments.
// Format: prefix:docKey
func makePartialSegmentKey(docKey core.ID) []byte {
	prefix := []byte(segmentRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docKey))
	return buf
}

// makeDocumentKey generates the key of the per-document marker record.
func makeDocumentKey(docKey core.ID) []byte {
	prefix := []byte(segmentDocumentPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docKey))
	return buf
}

// makeRoleKey generates the key of a role assignment by ID.
func makeRoleKey(id string) []byte {
	return []byte(roleRecordPrefix + ":" + id)
}

// makeRoleUserKey generates the user index key of a role assignment.
func makeRoleUserKey(user string) []byte {
	return []byte(roleUserPrefix + ":" + user)
}
