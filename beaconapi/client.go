// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package beaconapi reads beacon states and block headers from a beacon node
// over its standard REST API.
package beaconapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clproof/lidoreport/consensus"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "beaconapi")

// ErrNotFound is returned when the beacon node has no data for a state ID,
// typically because the slot was empty.
var ErrNotFound = errors.New("not found 404")

// Named state identifiers accepted by the beacon node besides slot numbers.
const (
	StateHead      = "head"
	StateFinalized = "finalized"
	StateGenesis   = "genesis"
)

// SlotID returns the state identifier of a slot.
func SlotID(slot consensus.Slot) string {
	return strconv.FormatUint(uint64(slot), 10)
}

// Source is anything that can provide beacon states and headers.
type Source interface {
	BeaconState(ctx context.Context, stateID string) (consensus.BeaconState, error)
	BeaconBlockHeader(ctx context.Context, stateID string) (*consensus.BeaconBlockHeader, error)
}

// Client talks to a beacon node REST endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	headers  *lru.Cache // slot -> *consensus.BeaconBlockHeader
}

// NewClient creates a beacon node client, caching at most cacheSize headers.
func NewClient(endpoint string, cacheSize int, timeout time.Duration) (*Client, error) {
	headers, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create header cache")
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
		headers:  headers,
	}, nil
}

// BeaconState downloads the SSZ encoded beacon state and parses it using the
// schema of the fork the node reports.
func (c *Client) BeaconState(ctx context.Context, stateID string) (consensus.BeaconState, error) {
	url := fmt.Sprintf("%s/eth/v2/debug/beacon/states/%s", c.endpoint, stateID)

	blob, resp, err := c.get(ctx, url, "application/octet-stream")
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve beacon state %s", stateID)
	}
	fork, err := consensus.ParseFork(resp.Header.Get("Eth-Consensus-Version"))
	if err != nil {
		return nil, errors.Wrapf(err, "beacon state %s", stateID)
	}
	state, err := consensus.DecodeBeaconState(fork, blob)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %v beacon state %s", fork, stateID)
	}
	log.WithFields(logrus.Fields{
		"state": stateID,
		"fork":  fork,
		"slot":  state.CurrentSlot(),
		"size":  len(blob),
	}).Debug("Retrieved beacon state")
	return state, nil
}

// headerResponse is the JSON body of the block header endpoint.
type headerResponse struct {
	Data struct {
		Root   string `json:"root"`
		Header struct {
			Message struct {
				Slot          uint64Str `json:"slot"`
				ProposerIndex uint64Str `json:"proposer_index"`
				ParentRoot    string    `json:"parent_root"`
				StateRoot     string    `json:"state_root"`
				BodyRoot      string    `json:"body_root"`
			} `json:"message"`
			Signature string `json:"signature"`
		} `json:"header"`
	} `json:"data"`
	Finalized bool `json:"finalized"`
}

// BeaconBlockHeader retrieves the header of the block at the given state ID.
// Headers requested by slot are cached.
func (c *Client) BeaconBlockHeader(ctx context.Context, stateID string) (*consensus.BeaconBlockHeader, error) {
	if cached, ok := c.headers.Get(stateID); ok {
		return cached.(*consensus.BeaconBlockHeader), nil
	}
	url := fmt.Sprintf("%s/eth/v1/beacon/headers/%s", c.endpoint, stateID)

	blob, _, err := c.get(ctx, url, "application/json")
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve block header %s", stateID)
	}
	var parsed headerResponse
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, errors.Wrapf(err, "could not parse block header %s", stateID)
	}
	msg := parsed.Data.Header.Message
	header := &consensus.BeaconBlockHeader{
		Slot:          consensus.Slot(msg.Slot),
		ProposerIndex: consensus.ValidatorIndex(msg.ProposerIndex),
		ParentRoot:    common.HexToHash(msg.ParentRoot),
		StateRoot:     common.HexToHash(msg.StateRoot),
		BodyRoot:      common.HexToHash(msg.BodyRoot),
	}
	if root := common.HexToHash(parsed.Data.Root); root != header.HashTreeRoot() {
		return nil, errors.Errorf("block header %s root mismatch: reported %s, computed %s", stateID, root, header.HashTreeRoot())
	}
	if _, err := strconv.ParseUint(stateID, 10, 64); err == nil {
		c.headers.Add(stateID, header)
	}
	return header, nil
}

// FindBlockAtOrBefore walks back from slot until it finds a slot with a block,
// giving up after maxLookback empty slots.
func (c *Client) FindBlockAtOrBefore(ctx context.Context, slot consensus.Slot, maxLookback uint64) (*consensus.BeaconBlockHeader, error) {
	return FindBlockAtOrBefore(ctx, c, slot, maxLookback)
}

// FindBlockAtOrBefore walks back from slot on any source until it finds a slot
// with a block, giving up after maxLookback empty slots.
func FindBlockAtOrBefore(ctx context.Context, src Source, slot consensus.Slot, maxLookback uint64) (*consensus.BeaconBlockHeader, error) {
	for i := uint64(0); i <= maxLookback && uint64(slot) >= i; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := slot - consensus.Slot(i)

		header, err := src.BeaconBlockHeader(ctx, SlotID(current))
		switch {
		case err == nil:
			if i > 0 {
				log.WithFields(logrus.Fields{"target": slot, "found": current}).Info("Found block before target slot")
			}
			return header, nil
		case errors.Is(err, ErrNotFound):
			if i > 0 && i%8 == 0 {
				log.WithFields(logrus.Fields{"target": slot, "current": current, "scanned": i}).Info("Still looking for a non-empty slot")
			}
		default:
			return nil, err
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "no block within %d slots before %d", maxLookback, slot)
}

// get performs a GET request, returning the body of a successful response.
func (c *Client) get(ctx context.Context, url string, accept string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, resp, ErrNotFound
		}
		return nil, resp, errors.Errorf("url: %v, error-response: %s", url, data)
	}
	return data, resp, err
}

// uint64Str is a uint64 carried as a JSON string.
type uint64Str uint64

func (s *uint64Str) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	n, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}
	*s = uint64Str(n)
	return nil
}
