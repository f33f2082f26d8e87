package tm

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/textutil"
)

// fakeConn is a minimal dbConn backed by an in-memory hash table. It is
// deliberately narrow: FindSimilar's Query path is exercised only when a
// test needs a miss to fall through to the fuzzy search, in which case
// errQueryUnsupported surfaces immediately rather than pretending to run
// a vector search.
type fakeConn struct {
	byHash map[string]string
}

func newFakeConn() *fakeConn {
	return &fakeConn{byHash: make(map[string]string)}
}

func (f *fakeConn) put(source, translated string) {
	f.byHash[textutil.Hash(source)] = translated
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

var errQueryUnsupported = errors.New("fakeConn: vector query not supported")

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errQueryUnsupported
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	hash, _ := args[0].(string)
	translated, ok := f.byHash[hash]
	return &fakeRow{translated: translated, ok: ok}
}

type fakeRow struct {
	translated string
	ok         bool
}

func (r *fakeRow) Scan(dest ...any) error {
	if !r.ok {
		return pgx.ErrNoRows
	}
	if p, ok := dest[0].(*string); ok {
		*p = r.translated
	}
	return nil
}

func newStoreWithFake(f *fakeConn) *Store {
	return &Store{pool: f}
}

func TestStoreGetRoundTripsExactHashMatch(t *testing.T) {
	f := newFakeConn()
	f.put("こんにちは", "Hello")
	store := newStoreWithFake(f)

	got, ok, err := store.Get(context.Background(), "こんにちは")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected exact hash hit")
	}
	if got != "Hello" {
		t.Fatalf("Get() = %q, want %q", got, "Hello")
	}
}

func TestStoreGetMissReturnsNotOK(t *testing.T) {
	store := newStoreWithFake(newFakeConn())

	_, ok, err := store.Get(context.Background(), "見つからない")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for an unseeded source string")
	}
}

func TestStoreSuggestReturnsExactWithoutConsultingFuzzyIndex(t *testing.T) {
	f := newFakeConn()
	f.put("おはよう", "Good morning")
	store := newStoreWithFake(f)

	sug, err := store.Suggest(context.Background(), "おはよう", 5)
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if sug.Exact != "Good morning" {
		t.Fatalf("Suggest().Exact = %q, want %q", sug.Exact, "Good morning")
	}
	if len(sug.Similar) != 0 {
		t.Fatalf("expected no fuzzy matches when an exact hit exists, got %v", sug.Similar)
	}
}

func TestStoreSuggestFallsBackToFuzzySearchOnMiss(t *testing.T) {
	store := newStoreWithFake(newFakeConn())

	_, err := store.Suggest(context.Background(), "未登録の文章", 5)
	if !errors.Is(err, errQueryUnsupported) {
		t.Fatalf("expected the fuzzy search path to run on a miss, got err=%v", err)
	}
}

func TestSuggestForFileSkipsAlreadyTranslatedAndNonTranslatableEntries(t *testing.T) {
	f := newFakeConn()
	f.put("いってきます", "See you later")
	store := newStoreWithFake(f)

	already := "already done"
	record := model.NewFileRecord("scene01.ks")
	record.Append(1, &model.Entry{Type: model.Dialogue, Original: "いってきます"})
	record.Append(2, &model.Entry{Type: model.Dialogue, Original: "translated already", Translation: &already})
	record.Append(3, &model.Entry{Type: model.CharacterName, Original: "Haruka"})

	got, err := store.SuggestForFile(context.Background(), record, 5)
	if err != nil {
		t.Fatalf("SuggestForFile returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one suggestion, got %d: %+v", len(got), got)
	}
	if got[0].Line != 1 || got[0].Exact != "See you later" {
		t.Fatalf("unexpected suggestion: %+v", got[0])
	}
}
