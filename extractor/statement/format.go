// Package statement runs the shared page algorithm of every statement
// format: the first page rule, then the middle pages, then the last page.
package statement

import (
	"errors"
	"fmt"

	"github.com/vidishraj/akkountant/extractor/geometry"
)

// Rule reads some pages of doc into c.
type Rule func(doc geometry.Document, c *Collector) error

// NoOp is the rule of formats with nothing to do on a stage.
func NoOp(geometry.Document, *Collector) error { return nil }

// Format is one statement variant. Each bank package builds its own.
type Format struct {
	Bank        string
	FirstPage   Rule
	MiddlePages Rule
	LastPage    Rule
}

// PageError is a failure while reading a page. Failures on page 1 are fatal
// for the file, later pages leave a usable partial result.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Fatal reports whether err means the file as a whole could not be read.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, geometry.ErrPasswordRequired) || errors.Is(err, geometry.ErrBadPassword) {
		return true
	}
	var pe *PageError
	if errors.As(err, &pe) {
		return pe.Page <= 1
	}
	return true
}

// Parse runs f over doc. The collector is always returned and holds every
// row read before an error.
func Parse(doc geometry.Document, f Format) (*Collector, error) {
	c := &Collector{Bank: f.Bank}

	pages := doc.NumPage()
	if pages < 1 {
		return c, &PageError{Page: 0, Err: fmt.Errorf("%w: no pages", geometry.ErrCorrupt)}
	}

	if err := run(f.FirstPage, doc, c, 1); err != nil {
		return c, err
	}
	if pages > 1 {
		if err := run(f.MiddlePages, doc, c, 2); err != nil {
			return c, err
		}
		if err := run(f.LastPage, doc, c, pages); err != nil {
			return c, err
		}
	}
	return c, nil
}

func run(rule Rule, doc geometry.Document, c *Collector, page int) error {
	if rule == nil {
		return nil
	}
	err := rule(doc, c)
	if err == nil {
		return nil
	}
	var pe *PageError
	if errors.As(err, &pe) {
		return err
	}
	return &PageError{Page: page, Err: err}
}

// ReadPage extracts region from page, tagging failures with the page number.
func ReadPage(doc geometry.Document, page int, region geometry.Region) (geometry.Table, error) {
	table, err := doc.Table(page, region)
	if err != nil {
		var pe *PageError
		if errors.As(err, &pe) {
			return table, err
		}
		return table, &PageError{Page: page, Err: err}
	}
	return table, nil
}

// ForEachPage reads region from pages from..to inclusive and hands each
// table to fn, stopping at the first error.
func ForEachPage(doc geometry.Document, from, to int, region geometry.Region, fn func(geometry.Table) error) error {
	for page := from; page <= to; page++ {
		table, err := ReadPage(doc, page, region)
		if err != nil {
			return err
		}
		if err := fn(table); err != nil {
			return &PageError{Page: page, Err: err}
		}
	}
	return nil
}
