// Package docs provides generated OpenAPI documentation.
//
// Collate API
//
//	@title			Collate API
//	@version		1.0
//	@description	Page numbering validation API for staging scanned books, sequencing their printed page numbers, and reviewing the clustered breaks.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/collate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/collate/serve.go -o ./swagger --parseDependency --parseInternal
