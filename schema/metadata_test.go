package schema

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type trade struct {
	Id        string `streamq:"Id,key=2"`
	Venue     string `streamq:"Venue,key=1"`
	Symbol    string `streamq:"Symbol,required,max=12"`
	Quantity  int
	Reference string `streamq:"-"`
	internal  bool
}

type badKeys struct {
	A string `streamq:"A,key=1"`
	B string `streamq:"B,key=1"`
}

func TestDeriveFieldMapping(t *testing.T) {
	meta := Derive(reflect.TypeOf(trade{}), "")
	require.True(t, meta.Valid)
	require.Equal(t, "trade", meta.Entity)
	require.Equal(t, "trades", meta.Stream)

	names := make([]string, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"Id", "Venue", "Symbol", "Quantity"}, names)

	symbol, ok := meta.Field("Symbol")
	require.True(t, ok)
	require.True(t, symbol.Required)
	require.Equal(t, 12, symbol.MaxLen)
}

func TestDeriveKeyOrderIsDeclaredOrder(t *testing.T) {
	meta := Derive(reflect.TypeOf(trade{}), "")
	require.Len(t, meta.Keys, 2)
	require.Equal(t, "Venue", meta.Keys[0].Name)
	require.Equal(t, "Id", meta.Keys[1].Name)
}

func TestDeriveRejectsDuplicateKeyOrder(t *testing.T) {
	meta := Derive(reflect.TypeOf(badKeys{}), "")
	require.False(t, meta.Valid)
	require.NotEmpty(t, meta.Errors)
}

func TestDeriveStreamOverride(t *testing.T) {
	meta := Derive(reflect.TypeOf(trade{}), "fills")
	require.Equal(t, "fills", meta.Stream)
}

func TestDeriveNonStruct(t *testing.T) {
	meta := Derive(reflect.TypeOf(42), "")
	require.False(t, meta.Valid)
}

func TestRegistryCachesPerType(t *testing.T) {
	r := NewRegistry()

	first := r.Lookup(reflect.TypeOf(trade{}), "")
	second := r.Lookup(reflect.TypeOf(trade{}), "ignored-after-first-use")
	require.Same(t, first, second)

	viaPtr := r.Lookup(reflect.TypeOf(&trade{}), "")
	require.Same(t, first, viaPtr)
}

func TestRegistryConcurrentFirstUse(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	results := make([]*EntityMetadata, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(slot int) {
			defer wg.Done()
			results[slot] = r.Lookup(reflect.TypeOf(trade{}), "")
		}(i)
	}
	wg.Wait()

	for _, meta := range results {
		require.NotNil(t, meta)
		require.Equal(t, "trades", meta.Stream)
	}
	// All later lookups settle on one cached value.
	settled := r.Lookup(reflect.TypeOf(trade{}), "")
	require.Same(t, settled, r.Lookup(reflect.TypeOf(trade{}), ""))
}
