package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

const rule = "============================================================"

type shell struct {
	parser *usecases.ParseService
	out    io.Writer
}

// run reads queries line by line until quit, exit, EOF or ctx is done.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, "GeoQuery interactive parser")
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, "Enter natural language location queries.")
	fmt.Fprintln(s.out, "Type 'help' for available commands or 'quit' to exit.")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "\nquery> ")
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case "help":
			s.help()
		case "relations":
			s.relations()
		default:
			s.parse(ctx, line)
		}
	}
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  help       show this help message")
	fmt.Fprintln(s.out, "  relations  list available spatial relations")
	fmt.Fprintln(s.out, "  quit       exit (also: exit)")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Example queries:")
	fmt.Fprintln(s.out, "  in Bern")
	fmt.Fprintln(s.out, "  near Lake Geneva")
	fmt.Fprintln(s.out, "  north of Zurich")
	fmt.Fprintln(s.out, "  Bushaltestellen in Zürich")
}

func (s *shell) relations() {
	fmt.Fprintln(s.out, "Available spatial relations:")
	for _, cat := range []domain.Category{domain.CategoryContainment, domain.CategoryBuffer, domain.CategoryDirectional} {
		names, err := s.parser.AvailableRelations(cat)
		if err != nil {
			fmt.Fprintf(s.out, "  %s: %v\n", cat, err)
			continue
		}
		fmt.Fprintf(s.out, "  %-12s %s\n", cat+":", strings.Join(names, ", "))
	}
}

func (s *shell) parse(ctx context.Context, query string) {
	q, advisory, err := s.parser.Parse(ctx, query)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	printResult(s.out, q)
	if advisory != nil {
		fmt.Fprintf(s.out, "warning: %s\n", advisory.Message())
	}
}

func printResult(w io.Writer, q *domain.GeoQuery) {
	fmt.Fprintln(w, rule)

	loc := q.ReferenceLocation
	fmt.Fprintf(w, "Location: %s\n", loc.Name)
	switch {
	case loc.Type != nil && loc.TypeConfidence != nil:
		fmt.Fprintf(w, "  Type: %s (confidence: %.2f)\n", *loc.Type, *loc.TypeConfidence)
	case loc.Type != nil:
		fmt.Fprintf(w, "  Type: %s\n", *loc.Type)
	default:
		fmt.Fprintln(w, "  Type: (not specified)")
	}

	fmt.Fprintf(w, "Relation: %s (%s)\n", q.SpatialRelation.Relation, q.SpatialRelation.Category)

	if b := q.BufferConfig; b != nil {
		fmt.Fprintf(w, "Buffer: %gm from %s", b.DistanceM, b.BufferFrom)
		if b.RingOnly {
			fmt.Fprint(w, ", ring only")
		}
		fmt.Fprintln(w)
	}

	c := q.ConfidenceBreakdown
	fmt.Fprintf(w, "Confidence: overall %.2f (%s), location %.2f", c.Overall, domain.ConfidenceLevel(c.Overall), c.LocationConfidence)
	if c.RelationConfidence != nil {
		fmt.Fprintf(w, ", relation %.2f", *c.RelationConfidence)
	}
	fmt.Fprintln(w)
}
