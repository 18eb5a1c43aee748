package evalserver

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client talks to a running evaluation server over plaintext gRPC.
type Client struct {
	conn   *grpc.ClientConn
	method *desc.MethodDescriptor
}

// Dial connects to the server at target.
func Dial(target string) (*Client, error) {
	fd, err := loadDescriptor()
	if err != nil {
		return nil, err
	}
	sd := fd.FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in embedded proto", ServiceName)
	}
	md := sd.FindMethodByName("Evaluate")
	if md == nil {
		return nil, fmt.Errorf("method Evaluate not found on %s", ServiceName)
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", target, err)
	}
	return &Client{conn: conn, method: md}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Evaluate runs the given assembly on the remote interpreter.
func (c *Client) Evaluate(ctx context.Context, assembly string, slotCount int) (Outcome, error) {
	req := dynamic.NewMessage(c.method.GetInputType())
	req.SetFieldByName("assembly", assembly)
	req.SetFieldByName("slot_count", int32(slotCount))

	resp := dynamic.NewMessage(c.method.GetOutputType())
	fullMethod := fmt.Sprintf("/%s/%s", ServiceName, c.method.GetName())
	if err := c.conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		return Outcome{}, fmt.Errorf("calling %s: %w", fullMethod, err)
	}

	out := Outcome{}
	out.Value, _ = resp.GetFieldByName("value").(string)
	out.Failure, _ = resp.GetFieldByName("failure").(string)
	out.Kind, _ = resp.GetFieldByName("kind").(string)
	return out, nil
}
