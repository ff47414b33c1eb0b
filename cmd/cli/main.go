package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "store":
		handleStore(args)
	case "audit":
		listAuditLog(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`storectl - store control plane CLI

Usage:
  storectl auth <register|login|logout|who>
  storectl store <list|create|delete|get|credentials|types>
  storectl audit [-limit N]

Environment:
  STOREPLANE_API   API base URL (default http://localhost:8080/api)`)
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storectl auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerOperator(args[1:])
	case "login":
		loginOperator(args[1:])
	case "logout":
		logoutOperator()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleStore(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storectl store <list|create|delete|get|credentials|types>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listStores(args[1:])
	case "create":
		createStore(args[1:])
	case "delete":
		deleteStore(args[1:])
	case "get":
		getStore(args[1:])
	case "credentials":
		storeCredentials(args[1:])
	case "types":
		listStoreTypes(args[1:])
	default:
		fmt.Printf("unknown store command: %s\n", subCmd)
	}
}

// Auth commands
func registerOperator(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "operator email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fmt.Println("Error: email, username, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"username": *username,
		"password": *password,
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Operator registered: %s\n", *email)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginOperator(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "operator email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutOperator() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Store commands
func listStores(args []string) {
	_ = args
	resp, err := http.Get(getAPIURL() + "/stores")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Stores []map[string]interface{} `json:"stores"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tURL")
	for _, s := range result.Stores {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", s["id"], s["name"], s["type"], s["status"], s["url"])
	}
	w.Flush()
}

func createStore(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "store name (lowercase letters, digits, hyphens)")
	storeType := fs.String("type", "woocommerce", "store type (woocommerce or medusa)")

	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"name": *name, "type": *storeType}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/stores", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 202 {
		var store map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&store)
		fmt.Printf("✓ Store %v accepted, provisioning in background (id: %v)\n", store["name"], store["id"])
		return
	}
	body := make([]byte, 512)
	n, _ := resp.Body.Read(body)
	fmt.Printf("✗ Create failed (%d): %s\n", resp.StatusCode, body[:n])
}

func deleteStore(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storectl store delete <store-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/stores/"+args[0], nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 {
		fmt.Println("✓ Store deletion started")
	} else {
		fmt.Printf("✗ Delete failed (%d)\n", resp.StatusCode)
	}
}

func getStore(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storectl store get <store-id>")
		return
	}

	resp, err := http.Get(getAPIURL() + "/stores/" + args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Printf("✗ Lookup failed (%d)\n", resp.StatusCode)
		return
	}

	var store map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&store)
	out, _ := json.MarshalIndent(store, "", "  ")
	fmt.Println(string(out))
}

func storeCredentials(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: storectl store credentials <store-id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/stores/"+args[0]+"/credentials", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Printf("✗ Credential recovery failed (%d)\n", resp.StatusCode)
		return
	}

	var creds map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&creds)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Store URL\t%v\n", creds["store_url"])
	fmt.Fprintf(w, "Admin URL\t%v\n", creds["admin_url"])
	fmt.Fprintf(w, "Admin user\t%v\n", creds["admin_user"])
	fmt.Fprintf(w, "Admin password\t%v\n", creds["admin_password"])
	fmt.Fprintf(w, "Admin email\t%v\n", creds["admin_email"])
	w.Flush()
}

func listStoreTypes(args []string) {
	_ = args
	resp, err := http.Get(getAPIURL() + "/store-types")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Types []map[string]interface{} `json:"types"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tDESCRIPTION")
	for _, t := range result.Types {
		fmt.Fprintf(w, "%v\t%v\n", t["type"], t["description"])
	}
	w.Flush()
}

// Audit commands
func listAuditLog(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	limit := fs.Int("limit", 50, "maximum number of events")
	fs.Parse(args)

	resp, err := http.Get(fmt.Sprintf("%s/audit?limit=%d", getAPIURL(), *limit))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Events []map[string]interface{} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSTORE\tMESSAGE")
	for _, e := range result.Events {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", e["created_at"], e["action"], e["store_name"], e["message"])
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("STOREPLANE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.storeplane/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.storeplane", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
