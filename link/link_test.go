package link

import (
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/value"
)

func TestSendMessageDelivers(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := New(clientConn)
	defer client.Close()

	received := make(chan Message, 1)
	server := New(serverConn)
	server.OnMessage = func(msg Message) { received <- msg }
	defer server.Close()

	if err := client.SendMessage(Message{Target: "proj1", Attribute: "opacity", Args: []value.Value{value.Float(0.5)}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Target != "proj1" || msg.Attribute != "opacity" {
			t.Fatalf("unexpected message: %+v", msg)
		}
		if len(msg.Args) != 1 || !value.Equal(msg.Args[0], value.Float(0.5)) {
			t.Fatalf("unexpected args: %+v", msg.Args)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
}

func TestRequestResponse(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := New(clientConn)
	defer client.Close()

	server := New(serverConn)
	defer server.Close()
	server.OnMessage = func(msg Message) {
		if msg.Token != uuid.Nil {
			_ = server.Answer(msg.Token, []value.Value{value.String("pong")})
		}
	}

	args := client.SendMessageAndWaitForAnswer(Message{Target: "root", Attribute: "ping"}, 2*time.Second)
	if len(args) != 1 || args[0].String() != "pong" {
		t.Fatalf("unexpected answer: %+v", args)
	}
}

func TestRequestTimesOutWithNoAnswer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := New(clientConn)
	defer client.Close()
	server := New(serverConn)
	defer server.Close()
	// no OnMessage handler registered: request goes unanswered

	args := client.SendMessageAndWaitForAnswer(Message{Target: "root", Attribute: "ping"}, 100*time.Millisecond)
	if args != nil {
		t.Fatalf("expected nil args on timeout, got %+v", args)
	}
}

func TestSendBufferDelivers(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := New(clientConn)
	defer client.Close()

	received := make(chan Buffer, 4)
	server := New(serverConn)
	server.OnBuffer = func(b Buffer) { received <- b }
	defer server.Close()

	if err := client.SendBuffer(Buffer{Target: "scene1", Bytes: []byte{1, 2, 3}}); err != nil {
		t.Fatalf("send buffer: %v", err)
	}

	select {
	case b := <-received:
		if b.Target != "scene1" || string(b.Bytes) != "\x01\x02\x03" {
			t.Fatalf("unexpected buffer: %+v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for buffer")
	}
}
