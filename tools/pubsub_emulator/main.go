package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// topics of the importer, each one with a subscription of the same name
var topics = []string{
	"importer-jobs",     // common.ImportJob
	"importer-events",   // common.Result
	"importer-progress", // common.ProgressMessage
}

func main() {
	ctx := context.Background()

	host := flag.String("host", "localhost:8085", "emulator host")
	projectID := flag.String("project", "geocube-emulator", "emulator project")
	ackDeadline := flag.Duration("ack-deadline", 10*time.Second, "ack deadline of the subscriptions")
	flag.Parse()

	os.Setenv("PUBSUB_EMULATOR_HOST", *host)

	log.Print("New client for project " + *projectID)
	client, err := pubsub.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("pubsub.NewClient: %v", err)
	}
	defer client.Close()

	for _, topic := range topics {
		log.Print("Create Topic : " + topic)
		if _, err = client.CreateTopic(ctx, topic); err != nil && status.Code(err) != codes.AlreadyExists {
			log.Fatalf("pubsub.CreateTopic: %v", err)
		}

		log.Print("Create Subscription : " + topic)
		if _, err = client.CreateSubscription(ctx, topic, pubsub.SubscriptionConfig{
			Topic:       client.Topic(topic),
			AckDeadline: *ackDeadline,
		}); err != nil && status.Code(err) != codes.AlreadyExists {
			log.Fatalf("CreateSubscription: %v", err)
		}
	}

	log.Print("Done!")
}
