// Package all registers every sink backend.
package all

import (
	_ "github.com/prof-ramos/planilhas-gov-br/internal/sink/mssql"
	_ "github.com/prof-ramos/planilhas-gov-br/internal/sink/postgres"
	_ "github.com/prof-ramos/planilhas-gov-br/internal/sink/rest"
	_ "github.com/prof-ramos/planilhas-gov-br/internal/sink/sqlite"
)
