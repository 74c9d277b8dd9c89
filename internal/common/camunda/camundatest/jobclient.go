// Package camundatest provides a recording worker.JobClient for handler tests.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// JobClient records the commands a handler sends. Like the gateway, it rejects
// a command whose context is already done.
type JobClient struct {
	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
	sendErrs  []error
}

func NewJobClient() *JobClient {
	return &JobClient{}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(&gateway{client: c}, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(&gateway{client: c}, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(&gateway{client: c}, noRetry)
}

func (c *JobClient) Completed() []*pb.CompleteJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.completed...)
}

func (c *JobClient) Failed() []*pb.FailJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.failed...)
}

func (c *JobClient) Thrown() []*pb.ThrowErrorRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.thrown...)
}

// SendErrors lists the context errors of rejected commands.
func (c *JobClient) SendErrors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.sendErrs...)
}

// CompletedVariables decodes the variables of the i-th completion.
func (c *JobClient) CompletedVariables(i int) (map[string]interface{}, error) {
	completed := c.Completed()
	vars := map[string]interface{}{}
	if i >= len(completed) {
		return vars, nil
	}
	err := json.Unmarshal([]byte(completed[i].Variables), &vars)
	return vars, err
}

func (c *JobClient) reject(ctx context.Context) error {
	err := ctx.Err()
	if err != nil {
		c.mu.Lock()
		c.sendErrs = append(c.sendErrs, err)
		c.mu.Unlock()
	}
	return err
}

// gateway answers the three job commands; any other call panics on the nil
// embedded client.
type gateway struct {
	pb.GatewayClient
	client *JobClient
}

func (g *gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	if err := g.client.reject(ctx); err != nil {
		return nil, err
	}
	g.client.mu.Lock()
	g.client.completed = append(g.client.completed, in)
	g.client.mu.Unlock()
	return &pb.CompleteJobResponse{}, nil
}

func (g *gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	if err := g.client.reject(ctx); err != nil {
		return nil, err
	}
	g.client.mu.Lock()
	g.client.failed = append(g.client.failed, in)
	g.client.mu.Unlock()
	return &pb.FailJobResponse{}, nil
}

func (g *gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	if err := g.client.reject(ctx); err != nil {
		return nil, err
	}
	g.client.mu.Lock()
	g.client.thrown = append(g.client.thrown, in)
	g.client.mu.Unlock()
	return &pb.ThrowErrorResponse{}, nil
}

// NewJob builds an activated job carrying variables.
func NewJob(key int64, taskType string, retries int32, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "ewaybill-test",
		ProcessDefinitionVersion: 1,
		ElementId:                "Activity_Test",
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  retries,
		Variables:                string(variablesJSON),
	}}
}
