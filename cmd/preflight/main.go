// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	project := strings.TrimSpace(os.Getenv("PROJECT_ID"))
	topic := strings.TrimSpace(os.Getenv("TOPIC"))
	healthSub := strings.TrimSpace(os.Getenv("HEALTH_SUBSCRIPTION"))
	timeoutMS := strings.TrimSpace(os.Getenv("HEALTH_TIMEOUT_MS"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	emulator := strings.TrimSpace(os.Getenv("PUBSUB_EMULATOR_HOST"))

	if project == "" {
		fail("PROJECT_ID is empty (Pub/Sub clients cannot be built).")
	}
	ok("PROJECT_ID=" + project)

	if topic == "" {
		warn("TOPIC is empty — the publish form will have nowhere to send messages.")
	} else {
		ok("TOPIC=" + topic)
	}

	if healthSub == "" {
		ok("HEALTH_SUBSCRIPTION empty — probe will target a random nonexistent subscription (connectivity-only mode).")
	} else {
		warn("HEALTH_SUBSCRIPTION=" + healthSub + " — every probe will consume and ack one real message from it; do not point this at business traffic.")
	}

	if timeoutMS != "" {
		if n, err := strconv.Atoi(timeoutMS); err != nil || n <= 0 {
			fail("HEALTH_TIMEOUT_MS must be a positive integer, got " + timeoutMS)
		}
		ok("HEALTH_TIMEOUT_MS=" + timeoutMS)
	} else {
		warn("HEALTH_TIMEOUT_MS empty; default in your app will be used.")
	}

	if db == "" {
		warn("DATABASE_URL empty — probe history will use the in-memory store.")
	} else {
		ok("DATABASE_URL present")
	}

	if emulator != "" {
		warn("PUBSUB_EMULATOR_HOST=" + emulator + " — talking to an emulator, not the live service.")
	}

	ok("preflight passed")
}
