package archive

// source.go: lectura de los dumps de klines.
//
// El dump original es un .tar.gz con un directorio de ficheros .xz, uno por
// lote de instrumentos. El tar se recorre en streaming, sin extraer a disco.
// También se acepta un directorio ya extraído o un fichero suelto.

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

const (
	maxLineBytes  = 4 * 1024 * 1024
	ctxCheckEvery = 1024
)

var _ ports.RecordSource = (*Source)(nil)

// Source implementa ports.RecordSource sobre un .tar.gz, un directorio o un
// fichero. Dentro de cada uno solo se leen miembros .xz, .gz, .tsv y .txt.
type Source struct {
	path string
}

// NewSource crea un Source para la ruta dada. No abre nada hasta Each.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// String devuelve la ruta del source.
func (s *Source) String() string {
	return s.path
}

// Each implementa ports.RecordSource.
func (s *Source) Each(ctx context.Context, fn func(origin, line string) error) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("archive.Each: %w: %w", domain.ErrSourceAccess, err)
	}

	switch {
	case info.IsDir():
		return s.eachDir(ctx, fn)
	case isTarball(s.path):
		return s.eachTar(ctx, fn)
	default:
		return s.eachFile(ctx, s.path, fn)
	}
}

// eachTar recorre los miembros regulares del tarball en el orden del archivo.
func (s *Source) eachTar(ctx context.Context, fn func(origin, line string) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("archive.eachTar: %w: %w", domain.ErrSourceAccess, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("archive.eachTar: %w: %s: %w", domain.ErrSourceAccess, s.path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive.eachTar: %w: %s: %w", domain.ErrSourceAccess, s.path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		origin := s.path + ":" + hdr.Name
		if err := eachMember(ctx, origin, hdr.Name, tr, fn); err != nil {
			return err
		}
	}
}

// eachDir recorre el directorio (y subdirectorios) en orden léxico.
func (s *Source) eachDir(ctx context.Context, fn func(origin, line string) error) error {
	return filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("archive.eachDir: %w: %w", domain.ErrSourceAccess, err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if isTarball(path) {
			slog.Debug("skipping nested tarball", "path", path)
			return nil
		}
		return s.eachFile(ctx, path, fn)
	})
}

func (s *Source) eachFile(ctx context.Context, path string, fn func(origin, line string) error) error {
	if kindOf(path) == kindSkip {
		slog.Debug("skipping file", "path", path)
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive.eachFile: %w: %w", domain.ErrSourceAccess, err)
	}
	defer f.Close()
	return eachMember(ctx, path, path, f, fn)
}

type memberKind int

const (
	kindSkip memberKind = iota
	kindPlain
	kindXZ
	kindGzip
)

func kindOf(name string) memberKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xz":
		return kindXZ
	case ".gz":
		return kindGzip
	case ".tsv", ".txt":
		return kindPlain
	}
	return kindSkip
}

func isTarball(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

// eachMember descomprime el miembro según su extensión y entrega sus líneas.
func eachMember(ctx context.Context, origin, name string, r io.Reader, fn func(origin, line string) error) error {
	var body io.Reader
	switch kindOf(name) {
	case kindSkip:
		slog.Debug("skipping member", "member", origin)
		return nil
	case kindXZ:
		xr, err := xz.NewReader(bufio.NewReader(r))
		if err != nil {
			return fmt.Errorf("archive: %w: %s: %w", domain.ErrSourceAccess, origin, err)
		}
		body = xr
	case kindGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("archive: %w: %s: %w", domain.ErrSourceAccess, origin, err)
		}
		defer gr.Close()
		body = gr
	default:
		body = r
	}

	slog.Info("extracting", "member", origin)
	return scanLines(ctx, origin, body, fn)
}

// scanLines entrega cada línea con su origen "member:n" (n desde 1).
func scanLines(ctx context.Context, origin string, r io.Reader, fn func(origin, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	n := 0
	for sc.Scan() {
		n++
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(fmt.Sprintf("%s:%d", origin, n), sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("archive: %w: %s: %w", domain.ErrSourceAccess, origin, err)
	}
	return nil
}
