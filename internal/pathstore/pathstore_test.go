package pathstore

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// countingStore records writes on top of a real store.
type countingStore struct {
	*storage.Store
	writes int
}

func (c *countingStore) SetItem(key, value string) error {
	c.writes++
	return c.Store.SetItem(key, value)
}

type brokenStore struct{}

func (brokenStore) GetItem(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenStore) SetItem(string, string) error         { return errors.New("disk gone") }

func TestKey(t *testing.T) {
	if got := Key(""); got != "learningPath:guest" {
		t.Errorf("Key(\"\") = %q", got)
	}
	if got := Key("7"); got != "learningPath:7" {
		t.Errorf("Key(7) = %q", got)
	}
}

func TestLoadPathMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []int64
	}{
		{"not json", "not json", []int64{}},
		{"mixed entries", `[1,"x",null]`, []int64{1}},
		{"object", `{"ids":[1]}`, []int64{}},
		{"fractions and negatives", `[2.5,-3,4,true]`, []int64{-3, 4}},
		{"duplicates", `[5,5,6,5]`, []int64{5, 6}},
		{"out of range", `[1e300,2,-1e300]`, []int64{2}},
		{"empty", ``, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t)
			s.SetItem(Key("guest"), tt.value)
			got := LoadPath(s, "guest")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadPath = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadPathMissingAndBroken(t *testing.T) {
	if got := LoadPath(openStore(t), "9"); len(got) != 0 || got == nil {
		t.Errorf("missing key = %#v, want empty slice", got)
	}
	if got := LoadPath(brokenStore{}, "9"); len(got) != 0 || got == nil {
		t.Errorf("broken store = %#v, want empty slice", got)
	}
}

func TestSavePathDedupsInOrder(t *testing.T) {
	s := openStore(t)
	if err := SavePath(s, "", []int64{3, 1, 3, 2, 1}); err != nil {
		t.Fatalf("SavePath: %v", err)
	}
	v, _, _ := s.GetItem("learningPath:guest")
	if v != "[3,1,2]" {
		t.Errorf("stored = %s, want [3,1,2]", v)
	}
}

func TestPathSetSemanticsAndWriteThrough(t *testing.T) {
	s := &countingStore{Store: openStore(t)}
	p := New(s, "7")
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		id := int64(rng.Intn(6))
		if rng.Intn(2) == 0 {
			p.Add(id)
		} else {
			p.Remove(id)
		}

		ids := p.IDs()
		seen := map[int64]bool{}
		for _, v := range ids {
			if seen[v] {
				t.Fatalf("step %d: duplicate %d in %v", i, v, ids)
			}
			seen[v] = true
		}
		if persisted := LoadPath(s, "7"); !reflect.DeepEqual(persisted, ids) {
			t.Fatalf("step %d: persisted %v, memory %v", i, persisted, ids)
		}
	}
}

func TestPathNoOpsDoNotWrite(t *testing.T) {
	s := &countingStore{Store: openStore(t)}
	p := New(s, "")

	if changed, err := p.Add(1); !changed || err != nil {
		t.Fatalf("Add(1) = %v, %v", changed, err)
	}
	if changed, _ := p.Add(1); changed {
		t.Error("second Add(1) reported a change")
	}
	if changed, _ := p.Remove(2); changed {
		t.Error("Remove of absent id reported a change")
	}
	if s.writes != 1 {
		t.Errorf("writes = %d, want 1", s.writes)
	}
	if !reflect.DeepEqual(p.IDs(), []int64{1}) {
		t.Errorf("IDs = %v", p.IDs())
	}
}

func TestPathPreservesFirstAddOrder(t *testing.T) {
	p := New(openStore(t), "")
	for _, id := range []int64{4, 2, 9, 2, 4} {
		p.Add(id)
	}
	p.Remove(2)
	p.Add(2)
	if want := []int64{4, 9, 2}; !reflect.DeepEqual(p.IDs(), want) {
		t.Errorf("IDs = %v, want %v", p.IDs(), want)
	}
}

func TestGuestAndUserKeysIsolated(t *testing.T) {
	s := openStore(t)
	p := New(s, "7")
	p.Add(10)
	p.Add(11)

	if got := LoadPath(s, ""); len(got) != 0 {
		t.Errorf("guest path = %v, want empty", got)
	}

	p.SetUser("")
	if got := p.IDs(); len(got) != 0 {
		t.Errorf("after switching to guest: %v", got)
	}
	p.Add(20)

	p.SetUser("8")
	if got := p.IDs(); len(got) != 0 {
		t.Errorf("user 8 path = %v, want empty", got)
	}

	p.SetUser("7")
	if want := []int64{10, 11}; !reflect.DeepEqual(p.IDs(), want) {
		t.Errorf("user 7 path = %v, want %v", p.IDs(), want)
	}
	if want := []int64{20}; !reflect.DeepEqual(LoadPath(s, ""), want) {
		t.Errorf("guest path = %v, want %v", LoadPath(s, ""), want)
	}
}

func TestAddReportsWriteFailure(t *testing.T) {
	p := New(brokenStore{}, "")
	if _, err := p.Add(1); err == nil {
		t.Error("expected write error")
	}
}
