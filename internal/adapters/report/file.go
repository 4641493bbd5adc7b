package report

// file.go: volcado del reporte completo con el detalle de cada trade.
//
// Formato:
//
//	[tips: ...]
//
//	success_ratio:<r>	avg_return:<r>
//
//	<resumen del instrumento>
//	-----------------------------
//	<trade>
//	...
//
//	-----------------------------
//
// Cada trade termina en salto de línea y el separador de cierre empieza por
// otro, de ahí la línea en blanco antes del cierre. Solo se listan
// instrumentos con al menos un trade.

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

const (
	tips      = "[tips: buy_time(sell_time): minutes after base time 2021-06-23 00:00:00]"
	separator = "-----------------------------"
)

var _ ports.ReportSink = (*File)(nil)

// File implementa ports.ReportSink escribiendo el reporte en un fichero.
type File struct {
	path string
}

// NewFile crea un sink que (re)escribe el fichero en path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path devuelve la ruta del fichero de salida.
func (f *File) Path() string {
	return f.path
}

// Write implementa ports.ReportSink. El fichero se trunca en cada run.
func (f *File) Write(_ context.Context, report domain.FinalReport) error {
	out, err := os.Create(f.path)
	if err != nil {
		return fmt.Errorf("report.Write: create %q: %w", f.path, err)
	}

	if err := Render(out, report); err != nil {
		out.Close()
		return fmt.Errorf("report.Write: %q: %w", f.path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("report.Write: close %q: %w", f.path, err)
	}

	slog.Info("report written", "path", f.path, "instruments_with_trades", len(report.Traded()))
	return nil
}

// Render escribe el reporte en w con el formato del fichero.
func Render(w io.Writer, report domain.FinalReport) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n\n", tips)
	fmt.Fprintf(bw, "success_ratio:%s\tavg_return:%s\n\n",
		domain.FormatFloat(report.AvgSuccessRatio), domain.FormatFloat(report.AvgReturn))

	for _, s := range report.Traded() {
		fmt.Fprint(bw, s.Line())
		fmt.Fprintf(bw, "\n%s\n", separator)
		for _, t := range s.Trades {
			fmt.Fprintln(bw, t.Line())
		}
		fmt.Fprintf(bw, "\n%s\n", separator)
	}

	return bw.Flush()
}
