package entity

import (
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
)

// CommitMeta is the small record of committer-supplied metadata attached to
// a commit: who made it, when, and why.
type CommitMeta struct {
	id         id.Id
	Committer  string
	Author     string
	Email      string
	Message    string
	CommitTime int64 // milliseconds since epoch
	Properties map[string]string
}

type commitMetaEncoding struct {
	Committer  string            `cbor:"committer"`
	Author     string            `cbor:"author"`
	Email      string            `cbor:"email"`
	Message    string            `cbor:"message"`
	CommitTime int64             `cbor:"commit_time"`
	Properties map[string]string `cbor:"properties"`
}

func (m CommitMeta) encoding() commitMetaEncoding {
	return commitMetaEncoding{
		Committer:  m.Committer,
		Author:     m.Author,
		Email:      m.Email,
		Message:    m.Message,
		CommitTime: m.CommitTime,
		Properties: m.Properties,
	}
}

// NewCommitMeta builds a CommitMeta and computes its content Id.
func NewCommitMeta(committer, author, email, message string, commitTime int64, properties map[string]string) (CommitMeta, error) {
	m := CommitMeta{
		Committer:  committer,
		Author:     author,
		Email:      email,
		Message:    message,
		CommitTime: commitTime,
		Properties: properties,
	}
	canonical, err := codec.Marshal(m.encoding())
	if err != nil {
		return CommitMeta{}, err
	}
	m.id = id.Build(canonical)
	return m, nil
}

// Id returns the CommitMeta's content Id.
func (m CommitMeta) Id() id.Id {
	return m.id
}

// Encode returns the canonical bytes for this CommitMeta.
func (m CommitMeta) Encode() ([]byte, error) {
	return codec.Marshal(m.encoding())
}

// DecodeCommitMeta decodes canonical bytes into a CommitMeta, verifying the
// claimed Id.
func DecodeCommitMeta(claimed id.Id, canonical []byte) (CommitMeta, error) {
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return CommitMeta{}, err
	}
	var enc commitMetaEncoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return CommitMeta{}, err
	}
	return CommitMeta{
		id:         claimed,
		Committer:  enc.Committer,
		Author:     enc.Author,
		Email:      enc.Email,
		Message:    enc.Message,
		CommitTime: enc.CommitTime,
		Properties: enc.Properties,
	}, nil
}
