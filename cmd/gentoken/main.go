// gentoken prints a development JWT for calling the API by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/testauth"
)

func main() {
	var (
		role          = flag.String("role", "admin", "admin, convenor or member")
		name          = flag.String("name", "", "display name carried in the token")
		committeeID   = flag.String("committee-id", "", "committee id (required for convenor)")
		committeeName = flag.String("committee-name", "", "committee display name")
		baseURL       = flag.String("url", "http://localhost:8080", "server base URL for the example")
	)
	flag.Parse()

	token, err := testauth.Token(testauth.Config{
		Role:          auth.Role(*role),
		Name:          *name,
		CommitteeID:   *committeeID,
		CommitteeName: *committeeName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' %s/api/v1/events/unapproved\n", token, *baseURL)
}
