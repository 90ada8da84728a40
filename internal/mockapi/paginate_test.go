package mockapi

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		query    string
		want     []int
		next     string
		previous string
		err      error
	}{
		{query: "", want: []int{1, 2, 3}, next: "http://api.test/lockers/locker-items/?page=2"},
		{query: "?page=2", want: []int{4, 5, 6}, next: "http://api.test/lockers/locker-items/?page=3", previous: "http://api.test/lockers/locker-items/?page=1"},
		{query: "?page=3", want: []int{7}, previous: "http://api.test/lockers/locker-items/?page=2"},
		{query: "?page=4", err: errInvalidPage},
		{query: "?page=zero", err: errInvalidPage},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://api.test/lockers/locker-items/"+tt.query, nil)
		got, err := paginate(r, items, 3)
		if !errors.Is(err, tt.err) {
			t.Fatalf("%q: err = %v, want %v", tt.query, err, tt.err)
		}
		if tt.err != nil {
			continue
		}
		if len(got.Results) != len(tt.want) || got.Count != len(items) {
			t.Fatalf("%q: results = %v count = %d", tt.query, got.Results, got.Count)
		}
		for i := range tt.want {
			if got.Results[i] != tt.want[i] {
				t.Fatalf("%q: results = %v", tt.query, got.Results)
			}
		}
		if deref(got.Next) != tt.next || deref(got.Previous) != tt.previous {
			t.Fatalf("%q: next=%q previous=%q", tt.query, deref(got.Next), deref(got.Previous))
		}
	}
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.test/complaints/list/", nil)
	got, err := paginate[int](r, nil, 10)
	if err != nil || got.Count != 0 || got.Next != nil || got.Results == nil {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestTokenKinds(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tk := &tokenIssuer{secret: []byte("k"), issuer: "test", accessTTL: time.Minute, refreshTTL: time.Hour, now: func() time.Time { return now }}

	access, err := tk.access(42)
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if id, err := tk.parse(access, kindAccess); err != nil || id != 42 {
		t.Fatalf("parse access = %d, %v", id, err)
	}
	if _, err := tk.parse(access, kindRefresh); !errors.Is(err, errTokenKind) {
		t.Fatalf("access accepted as refresh: %v", err)
	}

	other := &tokenIssuer{secret: []byte("other"), issuer: "test", accessTTL: time.Minute, now: tk.now}
	if _, err := other.parse(access, kindAccess); err == nil {
		t.Fatal("token verified with the wrong secret")
	}

	now = now.Add(2 * time.Minute)
	if _, err := tk.parse(access, kindAccess); err == nil {
		t.Fatal("expired access token accepted")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
