// cmd/client/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gurkanbulca/focusflow/internal/api"
	"github.com/gurkanbulca/focusflow/internal/health"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/view"
)

func main() {
	grpcAddr := flag.String("grpc", "localhost:50051", "health server address")
	httpAddr := flag.String("http", "http://localhost:8080", "task API base URL")
	filter := flag.String("filter", string(view.FilterAll), "all, active or completed")
	search := flag.String("search", "", "search term")
	flag.Parse()

	logger := logging.NewFromConfig("info", "text", "client")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := checkHealth(ctx, *grpcAddr); err != nil {
		logger.Error("Health check failed", "addr", *grpcAddr, "err", err)
		os.Exit(1)
	}
	logger.Info("Task store is serving", "addr", *grpcAddr)

	projection, err := fetchTasks(*httpAddr, *filter, *search)
	if err != nil {
		logger.Error("Failed to load tasks", "err", err)
		os.Exit(1)
	}
	printProjection(logger, projection)
}

func checkHealth(ctx context.Context, addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{
		Service: health.ServiceTasks,
	})
	if err != nil {
		return err
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("status %s", resp.GetStatus())
	}
	return nil
}

func fetchTasks(baseURL, filter, search string) (api.ProjectionResponse, error) {
	q := url.Values{}
	q.Set("filter", filter)
	if search != "" {
		q.Set("search", search)
	}

	var out api.ProjectionResponse
	agent := fiber.Get(baseURL + "/api/v1/tasks?" + q.Encode()).Timeout(10 * time.Second)
	if err := agent.Parse(); err != nil {
		return out, err
	}
	code, body, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return out, errs[0]
	}
	if code != fiber.StatusOK {
		return out, fmt.Errorf("unexpected status %d: %s", code, body)
	}
	return out, nil
}

func printProjection(logger *log.Logger, p api.ProjectionResponse) {
	logger.Info("Tasks",
		"filter", p.Filter,
		"all", p.Counts[view.FilterAll],
		"active", p.Counts[view.FilterActive],
		"completed", p.Counts[view.FilterCompleted],
	)
	for _, t := range p.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		fmt.Printf("[%s] #%d %-40s %-6s due %s\n", mark, t.ID, t.Title, t.Priority, due)
	}
}
