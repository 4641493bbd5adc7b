package ports

import "context"

// RecordSource entrega las líneas de texto crudas de los archivos de klines.
type RecordSource interface {
	// Each llama a fn con cada línea, en el orden en que aparece en los
	// archivos. origin identifica archivo y número de línea para los
	// diagnósticos. Si fn devuelve error, Each se detiene y lo propaga.
	Each(ctx context.Context, fn func(origin, line string) error) error
}
