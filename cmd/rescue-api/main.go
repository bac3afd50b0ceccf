// Command rescue-api serves the animal rescue REST API.
//
//	@title						Rescue API
//	@version					1.0
//	@description				REST API for an animal-rescue NGO: reporters file cases, the nearest NGO is assigned, and field staff track history.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				"Bearer <token>"
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						Authorization
package main

import (
	_ "github.com/tbourn/rescue-api/docs"

	"github.com/tbourn/rescue-api/cmd/rescue-api/cmd"
)

var version = "dev"

func main() {
	cmd.Execute(version)
}
