package scanner

import (
	"fmt"
	"io"

	"github.com/ccollicutt/codephoenix/pkg/github"
	"github.com/ccollicutt/codephoenix/pkg/results"
)

// NoResultsLine ends the pagination of a term.
const NoResultsLine = "Sem resultados ou fim das páginas."

// transcriptWriter writes the line format read by results.Parse. The first
// write error is kept and later writes are skipped.
type transcriptWriter struct {
	w   io.Writer
	err error
}

func (tw *transcriptWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *transcriptWriter) term(term string) {
	tw.printf("\n%s %s %s\n", results.TermMarker, term, results.TermClose)
}

func (tw *transcriptWriter) page(n int) {
	tw.printf("\nPágina %d\n", n)
}

func (tw *transcriptWriter) item(item github.CodeItem) {
	tw.printf("%s %s %s %s\n%s %s\n\n",
		results.ItemMarker, item.Repository.FullName, results.ItemSeparator, item.Path,
		results.LinkMarker, item.HTMLURL)
}

func (tw *transcriptWriter) noResults() {
	tw.printf("%s\n", NoResultsLine)
}
