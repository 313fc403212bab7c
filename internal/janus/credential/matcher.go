package credential

import (
	"context"

	"github.com/janus-access/server/internal/janus/types"
)

// MatchCode returns the first candidate whose stored hash verifies the
// presented code, or nil if none matches. Every candidate is checked:
// in a shared-code deployment several principals on the same door may
// hold distinct codes, so candidate order must not short-circuit the
// scan.
func MatchCode(code string, candidates []*types.User) (*types.User, error) {
	var matched *types.User
	for _, u := range candidates {
		if u.AccessCodeHash == "" {
			continue
		}
		ok, err := VerifyAccessCode(code, u.AccessCodeHash)
		if err != nil {
			return nil, err
		}
		if ok && matched == nil {
			matched = u
		}
	}
	return matched, nil
}

// Recognizer is the external face-comparison contract. Given a presented
// descriptor and enrolled candidates, it returns the id of its single
// best match and a similarity score in [0, 1].
type Recognizer interface {
	Match(ctx context.Context, descriptor []byte, candidates []*types.User) (userID string, score float64, err error)
}

// FaceMatcher resolves a face descriptor to a principal by delegating to
// an external recognizer and applying a similarity threshold. A match
// below the threshold resolves to no principal; there is no
// "first candidate with a face wins" fallback.
type FaceMatcher struct {
	recognizer Recognizer
	threshold  float64
}

// NewFaceMatcher wraps a recognizer with the given acceptance threshold.
func NewFaceMatcher(r Recognizer, threshold float64) *FaceMatcher {
	return &FaceMatcher{recognizer: r, threshold: threshold}
}

// Match returns the matched candidate or nil.
func (m *FaceMatcher) Match(ctx context.Context, descriptor []byte, candidates []*types.User) (*types.User, error) {
	enrolled := make([]*types.User, 0, len(candidates))
	for _, u := range candidates {
		if len(u.FaceDescriptor) > 0 {
			enrolled = append(enrolled, u)
		}
	}
	if len(enrolled) == 0 {
		return nil, nil
	}

	userID, score, err := m.recognizer.Match(ctx, descriptor, enrolled)
	if err != nil {
		return nil, err
	}
	if userID == "" || score < m.threshold {
		return nil, nil
	}

	for _, u := range enrolled {
		if u.ID == userID {
			return u, nil
		}
	}
	// Recognizer returned an id outside the candidate set.
	return nil, nil
}
