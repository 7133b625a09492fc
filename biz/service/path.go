package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yi-nology/cos_bridge/biz/dal/model"
)

// ResolvePathChain walks parent pointers from id and returns the chain root first.
// A revisited id or a chain longer than the configured depth fails with ErrCycleDetected.
func (s *Service) ResolvePathChain(ctx context.Context, id string) ([]model.FileRecord, error) {
	visited := make(map[string]struct{})
	var chain []model.FileRecord

	current := id
	for {
		if _, seen := visited[current]; seen {
			return nil, fmt.Errorf("%w: %s revisited", ErrCycleDetected, current)
		}
		if len(chain) >= s.maxDepth {
			return nil, fmt.Errorf("%w: depth exceeds %d", ErrCycleDetected, s.maxDepth)
		}
		visited[current] = struct{}{}

		record, err := s.logic.GetRecord(ctx, current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *record)
		if record.ParentID == nil || *record.ParentID == "" {
			break
		}
		current = *record.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ResolvePathString joins the segments of the resolved chain with "/".
func (s *Service) ResolvePathString(ctx context.Context, id string) (string, error) {
	chain, err := s.ResolvePathChain(ctx, id)
	if err != nil {
		return "", err
	}
	segments := make([]string, len(chain))
	for i := range chain {
		segments[i] = chain[i].Segment()
	}
	return strings.Join(segments, "/"), nil
}
