// Package api serves the indexed Funding and ProposalVoting entities over HTTP.
//
// @title ProposalIndexor API
// @version 1.0
// @description Read API over the entities indexed from Funding and ProposalVoting contract events
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
