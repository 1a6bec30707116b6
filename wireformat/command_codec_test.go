package wireformat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type codecChild struct {
	Name  string
	Count int32
}

type codecParent struct {
	ID         int64
	Flag       bool
	Label      string
	Payload    []byte
	Properties map[string]any
	Child      *codecChild
	Children   []*codecChild
}

func sampleParent() *codecParent {
	return &codecParent{
		ID:      42,
		Flag:    true,
		Label:   "destination://test",
		Payload: []byte{1, 2, 3, 4},
		Properties: map[string]any{
			"JMSXGroupID": "group-1",
			"priority":    int32(5),
		},
		Child: &codecChild{Name: "child-a", Count: 7},
		Children: []*codecChild{
			{Name: "c1", Count: 1},
			{Name: "c2", Count: 2},
		},
	}
}

func TestCommandCodecTightRoundTrip(t *testing.T) {
	src := sampleParent()
	w := NewWriter()
	require.NoError(t, MarshalCommand(w, src))

	var dst codecParent
	r := NewReader(w.Bytes())
	require.NoError(t, UnmarshalCommand(r, &dst))
	require.Equal(t, 0, r.Remaining())
	require.Equal(t, *src, dst)
}

func TestCommandCodecLooseRoundTrip(t *testing.T) {
	src := sampleParent()
	w := NewWriter()
	require.NoError(t, MarshalCommandLoose(w, src))

	var dst codecParent
	r := NewReader(w.Bytes())
	require.NoError(t, UnmarshalCommandLoose(r, &dst))
	require.Equal(t, 0, r.Remaining())
	require.Equal(t, *src, dst)
}

func TestCommandCodecTightAndLooseCarrySameSemantics(t *testing.T) {
	src := sampleParent()

	tight := NewWriter()
	require.NoError(t, MarshalCommand(tight, src))
	loose := NewWriter()
	require.NoError(t, MarshalCommandLoose(loose, src))

	var fromTight, fromLoose codecParent
	require.NoError(t, UnmarshalCommand(NewReader(tight.Bytes()), &fromTight))
	require.NoError(t, UnmarshalCommandLoose(NewReader(loose.Bytes()), &fromLoose))

	require.Equal(t, fromTight, fromLoose)
}

func TestCommandCodecNilFieldsRoundTrip(t *testing.T) {
	src := &codecParent{ID: 1, Flag: false}
	w := NewWriter()
	require.NoError(t, MarshalCommand(w, src))

	var dst codecParent
	require.NoError(t, UnmarshalCommand(NewReader(w.Bytes()), &dst))
	require.Equal(t, *src, dst)
	require.Nil(t, dst.Child)
	require.Nil(t, dst.Payload)
	require.Nil(t, dst.Properties)
}

type embeddedBase struct {
	CommandID        int32
	ResponseRequired bool
}

type embeddingCommand struct {
	embeddedBase
	Label string
}

func TestCommandCodecFlattensAnonymousEmbeddedStruct(t *testing.T) {
	src := &embeddingCommand{
		embeddedBase: embeddedBase{CommandID: 7, ResponseRequired: true},
		Label:        "hello",
	}
	w := NewWriter()
	require.NoError(t, MarshalCommand(w, src))

	var dst embeddingCommand
	require.NoError(t, UnmarshalCommand(NewReader(w.Bytes()), &dst))
	require.Equal(t, *src, dst)
}

type valueStructInner struct {
	Name string
	Seq  int64
}

type valueStructOuter struct {
	Inner valueStructInner
	Flag  bool
}

func TestCommandCodecFlattensNamedValueStructField(t *testing.T) {
	src := &valueStructOuter{Inner: valueStructInner{Name: "x", Seq: 9}, Flag: true}
	w := NewWriter()
	require.NoError(t, MarshalCommand(w, src))

	var dst valueStructOuter
	require.NoError(t, UnmarshalCommand(NewReader(w.Bytes()), &dst))
	require.Equal(t, *src, dst)
}

func TestCommandCodecSliceOfPointersWithNilElementRoundTrip(t *testing.T) {
	src := &codecParent{
		ID:    9,
		Label: "keep-aligned",
		Children: []*codecChild{
			{Name: "first", Count: 1},
			nil,
			{Name: "third", Count: 3},
		},
	}
	w := NewWriter()
	require.NoError(t, MarshalCommand(w, src))

	var dst codecParent
	r := NewReader(w.Bytes())
	require.NoError(t, UnmarshalCommand(r, &dst))
	require.Equal(t, 0, r.Remaining())
	require.Equal(t, *src, dst)
}

func TestCommandCodecRejectsNonPointer(t *testing.T) {
	w := NewWriter()
	err := MarshalCommand(w, codecChild{Name: "x"})
	require.Error(t, err)
}
