package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter a message to publish: ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fmt.Println("Nothing to publish.")
		return
	}

	body, _ := json.Marshal(map[string]string{"message": raw})
	req, _ := http.NewRequest(http.MethodPost, api+"/publish", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&out)
		fmt.Printf("Published to %s (id %s).\n", out["topic"], out["id"])
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
