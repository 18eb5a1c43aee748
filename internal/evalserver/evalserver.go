// Package evalserver exposes the interpreter over gRPC for long-lived
// cross-backend comparison harnesses: a unary Evaluate RPC takes a program in
// textual assembly form plus a slot count and returns the rendered result or
// the classified failure.
//
// The service is registered from a dynamically parsed proto descriptor, so no
// generated stubs are involved on either side of the wire.
package evalserver

import (
	"context"
	"fmt"
	"net"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/funvibe/wirevm/internal/asm"
	"github.com/funvibe/wirevm/internal/vm"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wirevm.v1.Interpreter"

const protoFileName = "wirevm/v1/interpreter.proto"

const protoSource = `syntax = "proto3";

package wirevm.v1;

service Interpreter {
  rpc Evaluate(EvaluateRequest) returns (EvaluateResponse);
}

message EvaluateRequest {
  string assembly = 1;
  int32 slot_count = 2;
}

message EvaluateResponse {
  string value = 1;
  string failure = 2;
  string kind = 3;
}
`

// loadDescriptor parses the embedded proto source into a file descriptor.
func loadDescriptor() (*desc.FileDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			protoFileName: protoSource,
		}),
	}
	fds, err := parser.ParseFiles(protoFileName)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded proto: %w", err)
	}
	return fds[0], nil
}

// Server hosts the evaluation service.
type Server struct {
	grpcServer *grpc.Server
}

// New builds a server with the Interpreter service registered.
func New() (*Server, error) {
	fd, err := loadDescriptor()
	if err != nil {
		return nil, err
	}
	sd := fd.FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in embedded proto", ServiceName)
	}

	serviceDesc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    fd.GetName(),
	}
	for _, method := range sd.GetMethods() {
		md := method
		serviceDesc.Methods = append(serviceDesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				h := srv.(*handler)
				return h.handleUnary(ctx, md, dec)
			},
		})
	}

	s := &Server{grpcServer: grpc.NewServer()}
	s.grpcServer.RegisterService(serviceDesc, &handler{})
	return s, nil
}

// Serve blocks serving connections on the listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// ListenAndServe listens on addr and serves until stopped.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Stop drains in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

type handler struct{}

func (h *handler) handleUnary(_ context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	inMsg := dynamic.NewMessage(md.GetInputType())
	if err := dec(inMsg); err != nil {
		return nil, err
	}

	assembly, _ := inMsg.GetFieldByName("assembly").(string)
	slotCount, _ := inMsg.GetFieldByName("slot_count").(int32)

	outcome := evaluate(assembly, int(slotCount))

	outMsg := dynamic.NewMessage(md.GetOutputType())
	outMsg.SetFieldByName("value", outcome.Value)
	outMsg.SetFieldByName("failure", outcome.Failure)
	outMsg.SetFieldByName("kind", outcome.Kind)
	return outMsg, nil
}

// Outcome is the wire-level evaluation result. Kind is "ok" for a clean run,
// "parse error" when the assembly did not parse, and otherwise the
// interpreter's failure classification.
type Outcome struct {
	Value   string
	Failure string
	Kind    string
}

func evaluate(assembly string, slotCount int) Outcome {
	code, err := asm.Parse(assembly)
	if err != nil {
		return Outcome{Failure: err.Error(), Kind: "parse error"}
	}
	result, err := vm.Interpret(code, vm.NewEnvironment(slotCount))
	if err != nil {
		return Outcome{Failure: err.Error(), Kind: vm.ClassifyError(err).String()}
	}
	return Outcome{Value: result.Inspect(), Kind: "ok"}
}
