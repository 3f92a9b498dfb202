package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/board"
	"github.com/gosuda/hq/internal/client"
	"github.com/gosuda/hq/internal/domain"
)

// boardOps is what the kind-agnostic commands need from a board.
type boardOps interface {
	show(ctx context.Context, c *client.Client, w io.Writer) error
	move(ctx context.Context, c *client.Client, w io.Writer, idArg, to string, index int) error
	remove(ctx context.Context, c *client.Client, w io.Writer, in io.Reader, idArg string, yes bool) error
}

type boardCLI[S domain.Stage, P domain.Payload] struct {
	kind domain.BoardKind[S]
}

var boardKinds = map[string]boardOps{ //nolint:gochecknoglobals // command lookup table
	"investors": boardCLI[domain.InvestorStage, domain.Investor]{kind: domain.InvestorBoard},
	"missions":  boardCLI[domain.MissionStage, domain.Mission]{kind: domain.MissionBoard},
}

// lookupBoard accepts the board name in singular or plural form.
func lookupBoard(name string) (boardOps, error) {
	name = strings.ToLower(name)
	if ops, ok := boardKinds[name]; ok {
		return ops, nil
	}
	if ops, ok := boardKinds[name+"s"]; ok {
		return ops, nil
	}
	names := make([]string, 0, len(boardKinds))
	for k := range boardKinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown board %q (want one of %s)", name, strings.Join(names, ", "))
}

func (k boardCLI[S, P]) open(ctx context.Context, c *client.Client) (*board.Board[S, P], error) {
	b := board.New(k.kind, client.Cards[S, P](c, k.kind), board.WithTimeout(writeTimeout))
	if _, err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (k boardCLI[S, P]) show(ctx context.Context, c *client.Client, w io.Writer) error {
	b, err := k.open(ctx, c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, renderBoard(k.kind, b.Columns()))
	return err
}

// move relocates a card. A negative index appends to the destination stage.
func (k boardCLI[S, P]) move(ctx context.Context, c *client.Client, w io.Writer, idArg, to string, index int) error {
	toStage, err := k.kind.ParseStage(to)
	if err != nil {
		return fmt.Errorf("stage %q: %w", to, err)
	}

	b, err := k.open(ctx, c)
	if err != nil {
		return err
	}
	card, from, err := resolveCard(b, idArg)
	if err != nil {
		return err
	}
	if index < 0 {
		index = len(b.Column(toStage))
	}

	if err := b.Move(ctx, card.ID, card.Stage, from, toStage, index); err != nil {
		return err
	}

	moved, at, _ := b.Find(card.ID)
	_, err = fmt.Fprintf(w, "%s: %s[%d] -> %s[%d]\n", card.Data.Label(), card.Stage, from, moved.Stage, at)
	return err
}

func (k boardCLI[S, P]) remove(ctx context.Context, c *client.Client, w io.Writer, in io.Reader, idArg string, yes bool) error {
	b, err := k.open(ctx, c)
	if err != nil {
		return err
	}
	card, _, err := resolveCard(b, idArg)
	if err != nil {
		return err
	}

	confirm := func(target *domain.Card[S, P]) bool {
		if yes {
			return true
		}
		fmt.Fprintf(w, "Delete %q from %s? [y/N] ", target.Data.Label(), target.Stage)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}

	if err := b.Delete(ctx, card.ID, confirm); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "deleted %s\n", card.Data.Label())
	return err
}

// resolveCard finds a card by full id or by a unique id prefix.
func resolveCard[S domain.Stage, P domain.Payload](b *board.Board[S, P], idArg string) (*domain.Card[S, P], int, error) {
	if id, err := uuid.Parse(idArg); err == nil {
		card, index, ok := b.Find(id)
		if !ok {
			return nil, 0, fmt.Errorf("card %s: %w", idArg, domain.ErrNotFound)
		}
		return card, index, nil
	}

	prefix := strings.ToLower(idArg)
	var match *domain.Card[S, P]
	for _, col := range b.Columns() {
		for _, c := range col {
			if !strings.HasPrefix(c.ID.String(), prefix) {
				continue
			}
			if match != nil {
				return nil, 0, fmt.Errorf("card prefix %q is ambiguous", idArg)
			}
			match = c
		}
	}
	if match == nil {
		return nil, 0, fmt.Errorf("card %s: %w", idArg, domain.ErrNotFound)
	}
	_, index, _ := b.Find(match.ID)
	return match, index, nil
}

// createCard appends a new card to stage, or to the default stage when
// stage is empty.
func createCard[S domain.Stage, P domain.Payload](ctx context.Context, c *client.Client, w io.Writer, kind domain.BoardKind[S], stage string, data P) error {
	var s S
	if stage != "" {
		parsed, err := kind.ParseStage(stage)
		if err != nil {
			return fmt.Errorf("stage %q: %w", stage, err)
		}
		s = parsed
	}

	b := board.New(kind, client.Cards[S, P](c, kind), board.WithTimeout(writeTimeout))
	if _, err := b.Load(ctx); err != nil {
		return err
	}
	card, err := b.Create(ctx, s, data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "created %s in %s (%s)\n", card.Data.Label(), card.Stage, card.ID)
	return err
}
