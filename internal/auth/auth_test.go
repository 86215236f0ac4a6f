package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConnectAuthorizer(t *testing.T) {
	testlog.Start(t)
	authorize := Connect(StaticToken{Token: "t"}, "managed", " ")

	if err := authorize(session.Connect{WorkerID: "w", WorkerType: "managed", Token: "t"}); err != nil {
		t.Fatalf("expected admit, got %v", err)
	}
	if err := authorize(session.Connect{WorkerID: "w", WorkerType: "managed", Token: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := authorize(session.Connect{WorkerID: "w", WorkerType: "client", Token: "t"}); !errors.Is(err, ErrWorkerTypeDenied) {
		t.Fatalf("expected ErrWorkerTypeDenied, got %v", err)
	}
	if err := Connect(AllowAll)(session.Connect{WorkerType: "anything"}); err != nil {
		t.Fatalf("AllowAll rejected: %v", err)
	}
}
