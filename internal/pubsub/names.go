package pubsub

import (
	"fmt"
	"strings"
)

// Pub/Sub resource names are fully qualified as
// projects/<project>/subscriptions/<name> (or .../topics/<name>).
// Config accepts either form; these helpers normalize to the full one.

// SubscriptionName returns the fully-qualified subscription resource name.
func SubscriptionName(project, name string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", project, name)
}

// TopicName returns the fully-qualified topic resource name.
func TopicName(project, name string) string {
	return fmt.Sprintf("projects/%s/topics/%s", project, name)
}

// qualify resolves a possibly-short resource name against a project.
// collection is "subscriptions" or "topics".
func qualify(project, collection, name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/%s/%s", project, collection, name)
}
