package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
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
	case "unit":
		handleUnit(args)
	case "booking":
		handleBooking(args)
	case "document":
		handleDocument(args)
	case "sync":
		runSync()
	case "admin":
		handleAdmin(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk auth <roster|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "roster":
		showRoster(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleUnit(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk unit <list|data|switch>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listUnits()
	case "data":
		unitData(args[1:])
	case "switch":
		switchUnit(args[1:])
	default:
		fmt.Printf("unknown unit command: %s\n", subCmd)
	}
}

func handleBooking(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk booking <list|create|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listBookings()
	case "create":
		createBooking(args[1:])
	case "delete":
		deleteBooking(args[1:])
	default:
		fmt.Printf("unknown booking command: %s\n", subCmd)
	}
}

func handleDocument(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk document <list|upload|approve|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listDocuments()
	case "upload":
		uploadDocument(args[1:])
	case "approve":
		approveDocument(args[1:])
	case "delete":
		deleteDocument(args[1:])
	default:
		fmt.Printf("unknown document command: %s\n", subCmd)
	}
}

func handleAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk admin <rooms|health>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "rooms":
		listRooms()
	case "health":
		checkHealth()
	default:
		fmt.Printf("unknown admin command: %s\n", subCmd)
	}
}

// Auth commands
func showRoster(args []string) {
	fs := flag.NewFlagSet("roster", flag.ExitOnError)
	unit := fs.String("unit", "", "unit ID (default: server's current unit)")
	fs.Parse(args)

	url := getAPIURL() + "/api/roster"
	if *unit != "" {
		url += "?unit=" + *unit
	}
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		UnitID string `json:"unitId"`
		Users  []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Role string `json:"role"`
			Dept string `json:"dept"`
		} `json:"users"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	fmt.Printf("Unit: %s\n", result.UnitID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tDEPT")
	for _, u := range result.Users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Role, u.Dept)
	}
	w.Flush()
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	unit := fs.String("unit", "", "unit ID")
	user := fs.String("user", "", "user ID (from auth roster)")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *unit == "" || *user == "" {
		fmt.Println("Error: unit and user are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"unitId": *unit, "userId": *user, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/api/login", "application/json", bytes.NewReader(data))
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
			fmt.Printf("✓ Logged in as: %s@%s\n", *user, *unit)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/logout", nil)
	addAuthHeader(req)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		resp.Body.Close()
	}
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/session", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Active bool `json:"active"`
		User   struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Role   string `json:"role"`
			UnitID string `json:"unitId"`
		} `json:"user"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !result.Active {
		fmt.Println("Not logged in (or session superseded elsewhere)")
		return
	}
	fmt.Printf("✓ %s (%s) in unit %s\n", result.User.Name, result.User.Role, result.User.UnitID)
}

// Unit commands
func listUnits() {
	resp, err := http.Get(getAPIURL() + "/api/units")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Units []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"units"`
		Current string `json:"current"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENT")
	for _, u := range result.Units {
		marker := ""
		if u.ID == result.Current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, marker)
	}
	w.Flush()
}

func unitData(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk unit data <unit-id>")
		return
	}
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/units/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(os.Stdout, resp.Body)
	fmt.Println()
}

func switchUnit(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk unit switch <unit-id>")
		return
	}
	data, _ := json.Marshal(map[string]string{"unitId": args[0]})
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/units/switch", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Switched to unit: %s\n", args[0])
	} else {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("✗ Switch failed: %s\n", body)
	}
}

// Booking commands
func listBookings() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/bookings", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Bookings []struct {
			ID        string `json:"id"`
			Date      string `json:"date"`
			Title     string `json:"title"`
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
			Location  string `json:"location"`
			SyncState string `json:"syncState"`
		} `json:"bookings"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tTITLE\tLOCATION\tSYNC")
	for _, b := range result.Bookings {
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%s\t%s\n", b.ID, b.Date, b.StartTime, b.EndTime, b.Title, b.Location, b.SyncState)
	}
	w.Flush()
}

func createBooking(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	date := fs.String("date", "", "booking date (YYYY-MM-DD)")
	title := fs.String("title", "", "booking title")
	start := fs.String("start", "09:00", "start time (HH:MM)")
	end := fs.String("end", "10:00", "end time (HH:MM)")
	room := fs.String("room", "", "room ID")
	kind := fs.String("type", "internal", "booking type (internal|external|training|important)")
	fs.Parse(args)

	if *date == "" || *title == "" {
		fmt.Println("Error: date and title are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"date":      *date,
		"title":     *title,
		"startTime": *start,
		"endTime":   *end,
		"roomId":    *room,
		"type":      *kind,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/bookings", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Booking created: %v\n", result["id"])
		if result["syncState"] == "pending_local_only" {
			fmt.Println("  (warning: not yet on the remote, will reconcile on next sync)")
		}
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func deleteBooking(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk booking delete <booking-id>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/api/bookings/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == 200 {
		fmt.Println("✓ Booking deleted")
	} else {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("✗ Delete failed: %s\n", body)
	}
}

// Document commands
func listDocuments() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/documents", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Documents []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Status    string `json:"status"`
			Category  string `json:"category"`
			Size      string `json:"size"`
			SyncState string `json:"syncState"`
		} `json:"documents"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCATEGORY\tSIZE\tSYNC")
	for _, d := range result.Documents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Status, d.Category, d.Size, d.SyncState)
	}
	w.Flush()
}

func uploadDocument(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	file := fs.String("file", "", "path to the file to upload")
	category := fs.String("category", "", "document category")
	fs.Parse(args)

	if *file == "" {
		fmt.Println("Error: file is required")
		fs.PrintDefaults()
		return
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", filepath.Base(*file))
	part.Write(data)
	mw.WriteField("category", *category)
	mw.Close()

	req, _ := http.NewRequest("POST", getAPIURL()+"/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Document uploaded: %v (%v)\n", result["id"], result["status"])
		if result["syncState"] == "pending_local_only" {
			fmt.Println("  (warning: stored locally only, upload will be retried by sync)")
		}
	} else {
		fmt.Printf("✗ Upload failed: %v\n", result)
	}
}

func approveDocument(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk document approve <document-id>")
		return
	}
	data, _ := json.Marshal(map[string]string{"status": "approved"})
	req, _ := http.NewRequest("PATCH", getAPIURL()+"/api/documents/"+args[0], bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == 200 {
		fmt.Println("✓ Document approved")
	} else {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("✗ Approve failed: %s\n", body)
	}
}

func deleteDocument(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: roomdesk document delete <document-id>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/api/documents/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == 200 {
		fmt.Println("✓ Document deleted")
	} else {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("✗ Delete failed: %s\n", body)
	}
}

// Sync command
func runSync() {
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/sync", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		UnitID    string `json:"unitId"`
		Remote    bool   `json:"remote"`
		Users     int    `json:"users"`
		Documents int    `json:"documents"`
		Bookings  int    `json:"bookings"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !result.Remote {
		fmt.Printf("Unit %s is local-only (no remote configured)\n", result.UnitID)
	}
	fmt.Printf("✓ Synced unit %s: %d users, %d documents, %d bookings\n",
		result.UnitID, result.Users, result.Documents, result.Bookings)
}

// Admin commands
func listRooms() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/rooms", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Rooms []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Capacity int    `json:"capacity"`
			Location string `json:"location"`
			Status   string `json:"status"`
		} `json:"rooms"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCAPACITY\tLOCATION\tSTATUS")
	for _, room := range result.Rooms {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", room.ID, room.Name, room.Capacity, room.Location, room.Status)
	}
	w.Flush()
}

func checkHealth() {
	resp, err := http.Get(getAPIURL() + "/readyz")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(os.Stdout, resp.Body)
	fmt.Println()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("ROOMDESK_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.roomdesk/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.roomdesk", 0700)
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

func printUsage() {
	fmt.Print(`roomdesk CLI

Usage:
  roomdesk <command> [options]

Commands:
  auth       Session operations (roster, login, logout, who)
  unit       Tenant operations (list, data, switch)
  booking    Booking operations (list, create, delete)
  document   Document operations (list, upload, approve, delete)
  sync       Trigger a reconciliation pass for your unit
  admin      Admin operations (rooms, health)
  help       Show this help message

Environment Variables:
  ROOMDESK_API    API endpoint (default: http://localhost:8080)

Examples:
  roomdesk auth roster -unit hq
  roomdesk auth login -unit hq -user u-1234 -password meeting42
  roomdesk booking create -date 2026-09-21 -title "All hands" -start 09:00 -end 10:00
  roomdesk document upload -file ./policy.pdf -category Policies
  roomdesk sync
`)
}
