package domain

import "errors"

var (
	// ErrMalformedRecord indica una línea con campos insuficientes o timestamp inválido.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMalformedPrice indica un precio que no se puede parsear como número.
	ErrMalformedPrice = errors.New("malformed price")

	// ErrSourceAccess indica que el archivo o directorio de datos no se pudo leer.
	ErrSourceAccess = errors.New("source not readable")
)
