package board

import (
	"strings"
	"testing"

	"chesspipe/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placement(fen string) string {
	return strings.Fields(fen)[0]
}

func sideToMove(fen string) string {
	return strings.Fields(fen)[1]
}

func TestReplayerRecordsMoverBeforeMove(t *testing.T) {
	r, err := NewReplayer("")
	require.NoError(t, err)
	assert.Equal(t, core.ColorWhite, r.Turn())

	step, err := r.Apply("e4")
	require.NoError(t, err)
	assert.Equal(t, core.ColorWhite, step.Color)
	assert.Equal(t, "e4", step.SAN)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR", placement(step.FEN))
	assert.Equal(t, "b", sideToMove(step.FEN))

	step, err = r.Apply("e5")
	require.NoError(t, err)
	assert.Equal(t, core.ColorBlack, step.Color)
	assert.Equal(t, "w", sideToMove(step.FEN))
	assert.Equal(t, step.FEN, r.FEN())
}

func TestReplayerRendersCheckAndMate(t *testing.T) {
	r, err := NewReplayer(StartingFEN)
	require.NoError(t, err)

	var last Step
	for _, san := range []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7"} {
		last, err = r.Apply(san)
		require.NoError(t, err, san)
	}
	assert.Equal(t, "Qxf7#", last.SAN)
	assert.Equal(t, core.ColorWhite, last.Color)
}

func TestReplayerAcceptsDecoratedSAN(t *testing.T) {
	r, err := NewReplayer("")
	require.NoError(t, err)
	for _, san := range []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5"} {
		_, err := r.Apply(san)
		require.NoError(t, err)
	}

	step, err := r.Apply("0-0!")
	require.NoError(t, err)
	assert.Equal(t, "O-O", step.SAN)
}

func TestReplayerPromotion(t *testing.T) {
	r, err := NewReplayer("8/P7/8/8/8/8/8/k6K w - - 0 1")
	require.NoError(t, err)

	step, err := r.Apply("a8Q")
	require.NoError(t, err)
	assert.Equal(t, "a8Q", normalizeSAN(step.SAN))
	assert.True(t, strings.HasPrefix(placement(step.FEN), "Q7/"))
}

func TestReplayerStartsFromCustomPosition(t *testing.T) {
	r, err := NewReplayer("4k3/8/8/8/8/8/8/4K2R b K - 0 40")
	require.NoError(t, err)
	assert.Equal(t, core.ColorBlack, r.Turn())

	step, err := r.Apply("Kd7")
	require.NoError(t, err)
	assert.Equal(t, core.ColorBlack, step.Color)
}

func TestReplayerRejectsIllegalMove(t *testing.T) {
	r, err := NewReplayer("")
	require.NoError(t, err)
	before := r.FEN()

	for _, san := range []string{"Ke3", "e5", "Nf6", "", "zz9"} {
		_, err := r.Apply(san)
		assert.Error(t, err, san)
	}
	assert.Equal(t, before, r.FEN())
}

func TestNewReplayerRejectsBadFEN(t *testing.T) {
	_, err := NewReplayer("not a fen")
	assert.Error(t, err)
}

func TestReplayerAcceptsRedundantDisambiguation(t *testing.T) {
	r, err := NewReplayer("")
	require.NoError(t, err)
	for _, san := range []string{"e4", "e5"} {
		_, err := r.Apply(san)
		require.NoError(t, err)
	}

	step, err := r.Apply("Ngf3")
	require.NoError(t, err)
	assert.Equal(t, "Nf3", step.SAN)

	step, err = r.Apply("Nb8c6")
	require.NoError(t, err)
	assert.Equal(t, "Nc6", step.SAN)
	assert.Equal(t, core.ColorBlack, step.Color)
}

func TestReplayerRejectsAmbiguousMove(t *testing.T) {
	r, err := NewReplayer("")
	require.NoError(t, err)
	for _, san := range []string{"d4", "d5", "Nf3", "Nf6"} {
		_, err := r.Apply(san)
		require.NoError(t, err)
	}

	_, err = r.Apply("Nd2")
	assert.Error(t, err)

	step, err := r.Apply("Nbd2")
	require.NoError(t, err)
	assert.Equal(t, "Nbd2", step.SAN)
}
