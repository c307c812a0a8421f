package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestResolveQueue(t *testing.T) {
	p1, p2, p3, best := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	cases := []struct {
		name          string
		queue         []uuid.UUID
		drafted       map[uuid.UUID]bool
		bestAvailable *uuid.UUID
		wantPlayer    uuid.UUID
		wantFromQueue bool
		wantErr       error
	}{
		{
			name:          "first queued player available",
			queue:         []uuid.UUID{p1, p2},
			wantPlayer:    p1,
			wantFromQueue: true,
		},
		{
			name:          "skips drafted players",
			queue:         []uuid.UUID{p1, p2, p3},
			drafted:       map[uuid.UUID]bool{p1: true, p2: true},
			wantPlayer:    p3,
			wantFromQueue: true,
		},
		{
			name:          "empty queue falls back to best available",
			queue:         nil,
			bestAvailable: &best,
			wantPlayer:    best,
		},
		{
			name:          "exhausted queue falls back to best available",
			queue:         []uuid.UUID{p1},
			drafted:       map[uuid.UUID]bool{p1: true},
			bestAvailable: &best,
			wantPlayer:    best,
		},
		{
			name:    "no players left at all",
			queue:   []uuid.UUID{p1},
			drafted: map[uuid.UUID]bool{p1: true},
			wantErr: ErrNoPlayersLeft,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			available := func(id uuid.UUID) bool { return !tc.drafted[id] }
			bestAvailable := func() (uuid.UUID, bool) {
				if tc.bestAvailable == nil {
					return uuid.Nil, false
				}
				return *tc.bestAvailable, true
			}

			got, fromQueue, err := ResolveQueue(tc.queue, available, bestAvailable)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got err %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.wantPlayer {
				t.Fatalf("player: got %s, want %s", got, tc.wantPlayer)
			}
			if fromQueue != tc.wantFromQueue {
				t.Fatalf("fromQueue: got %v, want %v", fromQueue, tc.wantFromQueue)
			}
		})
	}
}
