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

// Package config loads the gossip node's operator-facing configuration
// from a TOML file. This is deliberately separate from the wire catalog
// format (JSON): config is how an operator tunes a single node's local
// behavior, the catalog is what nodes exchange with each other.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// NodeConfig holds every tunable an operator can set: bind address, gossip
// cadence, bind-retry backoff, and pool dial timeout.
type NodeConfig struct {
	Node struct {
		Host string `toml:"host"`
		Port uint16 `toml:"port"`
	} `toml:"node"`

	Gossip struct {
		IntervalMS int `toml:"interval_ms"`
		TickSlices int `toml:"tick_slices"`
	} `toml:"gossip"`

	Bind struct {
		RetryIntervalMS int `toml:"retry_interval_ms"`
	} `toml:"bind"`

	Pool struct {
		DialTimeoutMS int `toml:"dial_timeout_ms"`
	} `toml:"pool"`

	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
}

// Default returns a NodeConfig with conservative defaults: a ~1s gossip
// period delivered as ten ~100ms cooperative sleeps, a 5s bind retry
// backoff, and a 5s pool dial timeout.
func Default() *NodeConfig {
	c := &NodeConfig{}
	c.Node.Host = "127.0.0.1"
	c.Node.Port = 5000
	c.Gossip.IntervalMS = 1000
	c.Gossip.TickSlices = 10
	c.Bind.RetryIntervalMS = 5000
	c.Pool.DialTimeoutMS = 5000
	c.Logging.Level = "info"
	return c
}

// Load reads and parses a TOML config file at path, applying Default's
// values for any field left at its zero value.
func Load(path string) (*NodeConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	c := Default()
	if err := toml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	applyDefaults(c)
	return c, nil
}

// MustLoad is like Load but panics on error; intended for use during
// program initialization where a missing or invalid config file is fatal.
func MustLoad(path string) *NodeConfig {
	c, err := Load(path)
	if err != nil {
		panic(err)
	}
	return c
}

func applyDefaults(c *NodeConfig) {
	d := Default()
	if c.Node.Host == "" {
		c.Node.Host = d.Node.Host
	}
	if c.Node.Port == 0 {
		c.Node.Port = d.Node.Port
	}
	if c.Gossip.IntervalMS <= 0 {
		c.Gossip.IntervalMS = d.Gossip.IntervalMS
	}
	if c.Gossip.TickSlices <= 0 {
		c.Gossip.TickSlices = d.Gossip.TickSlices
	}
	if c.Bind.RetryIntervalMS <= 0 {
		c.Bind.RetryIntervalMS = d.Bind.RetryIntervalMS
	}
	if c.Pool.DialTimeoutMS <= 0 {
		c.Pool.DialTimeoutMS = d.Pool.DialTimeoutMS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// GossipInterval is the target gossip tick period.
func (c *NodeConfig) GossipInterval() time.Duration {
	return time.Duration(c.Gossip.IntervalMS) * time.Millisecond
}

// GossipSlice is the duration of one cooperative sleep slice within a
// gossip tick; shutdown is checked between slices so it responds promptly
// without needing to interrupt a long sleep.
func (c *NodeConfig) GossipSlice() time.Duration {
	n := c.Gossip.TickSlices
	if n <= 0 {
		n = 1
	}
	return c.GossipInterval() / time.Duration(n)
}

// BindRetryInterval is the backoff between listen-bind attempts.
func (c *NodeConfig) BindRetryInterval() time.Duration {
	return time.Duration(c.Bind.RetryIntervalMS) * time.Millisecond
}

// DialTimeout bounds outbound connection attempts made by the pool.
func (c *NodeConfig) DialTimeout() time.Duration {
	return time.Duration(c.Pool.DialTimeoutMS) * time.Millisecond
}
