// FILE: internal/pgn/reader.go
package pgn

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/corentings/chess/v2"
)

var utf8BOM = []byte("\ufeff")

// RawGame is one game record as found in an archive
type RawGame struct {
	Index int // archive position, 0-based
	Tags  Tags
	Moves []Token // main line only
	Err   error   // record whose movetext could not be read
}

// Walk streams the archive and calls onGame for every record in order.
// A record with tags but no movetext is still reported. A record whose
// movetext is broken is reported with Err set so the caller decides.
func Walk(r io.Reader, onGame func(RawGame) error) error {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	scanner := chess.NewScanner(br)
	index := 0
	for scanner.HasNext() {
		scanned, err := scanner.ScanGame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive record %d: %w", index, err)
		}
		if strings.TrimSpace(scanned.Raw) == "" {
			continue
		}

		game := RawGame{Index: index}
		game.Tags, game.Moves, game.Err = Decode(scanned)
		index++

		if err := onGame(game); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll collects every record of the archive. An empty archive yields an
// empty, non-nil slice.
func ReadAll(r io.Reader) ([]RawGame, error) {
	games := []RawGame{}
	err := Walk(r, func(g RawGame) error {
		games = append(games, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

// Decode lexes one scanned record into its tags and main-line moves
func Decode(scanned *chess.GameScanned) (Tags, []Token, error) {
	lexed, err := chess.TokenizeGame(scanned)
	if err != nil {
		return nil, nil, err
	}
	tags, rest := splitTags(lexed)
	moves, err := mainLine(rest)
	return tags, moves, err
}

// splitTags consumes the header section, pairs stay in source order
func splitTags(lexed []chess.Token) (Tags, []chess.Token) {
	var (
		tags Tags
		key  string
	)
	i := 0
	for ; i < len(lexed); i++ {
		switch lexed[i].Type {
		case chess.TagStart, chess.TagEnd:
		case chess.TagKey:
			key = lexed[i].Value
		case chess.TagValue:
			tags = append(tags, Tag{Key: key, Value: lexed[i].Value})
			key = ""
		default:
			return tags, lexed[i:]
		}
	}
	return tags, nil
}
