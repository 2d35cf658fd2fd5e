// MIT License
//
// Copyright (c) 2025 DaggerTech
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package main provides a sample subscriber application demonstrating the
// cobweb gossip node's API. It starts a node, subscribes a counting
// callback to the "test" topic, and runs until it receives a message
// whose payload is "quit".
package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/markoxley/cobweb/peer"
)

// subscriberSample counts deliveries on "test" and signals quit is true
// once a "quit" payload arrives. Consume is invoked concurrently by the
// node's connection handlers, so access to count and quit is guarded by mu.
type subscriberSample struct {
	mu    sync.Mutex
	count int
	quit  bool
}

// consume implements the callback passed to Subscribe. It is called for
// every delivery on "test", locally or from a remote peer.
func (s *subscriberSample) consume(_ string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if string(payload) == "quit" {
		fmt.Println("count", s.count)
		s.quit = true
	}
}

func (s *subscriberSample) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

// main starts a node bound to 127.0.0.1:5201, subscribes to "test", and
// blocks until a "quit" message is delivered.
func main() {
	node, err := peer.New("127.0.0.1", 5201)
	if err != nil {
		log.Panic(err)
	}
	defer node.Shutdown()

	s := &subscriberSample{}
	node.Subscribe("test", s.consume)

	fmt.Println("listening on 127.0.0.1:5201")
	for !s.done() {
		time.Sleep(time.Millisecond)
	}
}
