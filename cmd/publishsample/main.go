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

// Package main provides a sample publisher application demonstrating the
// cobweb gossip node's API. It starts a node, learns about a single peer
// by address, and publishes a run of numbered messages to the "test"
// topic before reporting throughput.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/markoxley/cobweb/peer"
)

const msgCount = 1000

// main starts a node bound to 127.0.0.1:5200, registers 127.0.0.1:5201 as
// a known peer, and publishes msgCount messages to "test" at a modest
// rate, printing a running count and a final throughput figure.
func main() {
	node, err := peer.New("127.0.0.1", 5200)
	if err != nil {
		log.Panic(err)
	}
	defer node.Shutdown()

	node.AddKnownNode("127.0.0.1", 5201)

	start := time.Now()
	for i := 0; i < msgCount; i++ {
		node.Publish("test", []byte(fmt.Sprintf("message-%d", i)))
		if (i+1)%100 == 0 {
			fmt.Println("published", i+1, "messages")
		}
		time.Sleep(time.Millisecond)
	}

	du := time.Since(start)
	fmt.Println("duration:", du)
	fmt.Printf("messages per second: %.2f\n", float64(msgCount)/du.Seconds())
}
