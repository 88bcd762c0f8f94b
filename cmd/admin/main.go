package main

import (
	"fmt"
	"log"
	"os"

	"voicepods/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <pods|pod|stats|release> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "pods":
		pods, err := storageSvc.GetAllPods()
		if err != nil {
			log.Fatalf("listing pods: %v", err)
		}
		for _, pod := range pods {
			grace := "-"
			if pod.OwnerLeftAt != nil {
				grace = pod.OwnerLeftAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s\tcommunity=%s\towner=%s\toriginal=%s\tgrace_since=%s\treclaim_pending=%v\n",
				pod.RoomID, pod.CommunityID, pod.OwnerID, pod.OriginalOwnerID, grace, pod.ReclaimRequestPending)
		}

	case "pod":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin pod <roomID>")
			os.Exit(1)
		}
		pod, err := storageSvc.GetPodByRoomID(os.Args[2])
		if err != nil {
			log.Fatalf("pod lookup: %v", err)
		}
		fmt.Printf("room:             %s\n", pod.RoomID)
		fmt.Printf("community:        %s\n", pod.CommunityID)
		fmt.Printf("owner:            %s\n", pod.OwnerID)
		fmt.Printf("original owner:   %s\n", pod.OriginalOwnerID)
		fmt.Printf("owner left at:    %v\n", pod.OwnerLeftAt)
		fmt.Printf("reclaim pending:  %v\n", pod.ReclaimRequestPending)
		sessions, err := storageSvc.GetSessionsByRoom(pod.RoomID)
		if err == nil {
			fmt.Printf("open sessions:    %d\n", len(sessions))
		}

	case "stats":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin stats <userID> <communityID>")
			os.Exit(1)
		}
		stat, err := storageSvc.GetVoiceStat(os.Args[2], os.Args[3])
		if err == storage.ErrNotFound {
			fmt.Println("no voice time recorded")
			return
		}
		if err != nil {
			log.Fatalf("stat lookup: %v", err)
		}
		fmt.Printf("total seconds: %d\nsessions: %d\n", stat.TotalSeconds, stat.SessionCount)

	case "release":
		// Drops an orphaned Pod row whose room is already gone. Does not
		// touch the platform.
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin release <roomID>")
			os.Exit(1)
		}
		if err := storageSvc.DeletePod(os.Args[2]); err != nil {
			log.Fatalf("releasing pod: %v", err)
		}
		fmt.Println("pod record deleted")

	default:
		fmt.Printf("unknown command: %s\n", command)
		os.Exit(1)
	}
}
