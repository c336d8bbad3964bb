// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package rpc

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annchain/schain-manager/common/goroutine"
	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/node"
	"github.com/annchain/schain-manager/types"
)

type RpcController struct {
	Service *node.Service
	Events  *node.EventLogger
}

// NodeRequest is the body of node-originated calls. Owner is the caller.
type NodeRequest struct {
	Owner uint64       `json:"owner"`
	Node  types.NodeID `json:"node"`
}

type GroupNodeRequest struct {
	Owner  uint64        `json:"owner"`
	Schain types.GroupID `json:"schain"`
	Node   types.NodeID  `json:"node"`
}

type PayloadRequest struct {
	GroupNodeRequest
	Payload *dkg.Payload `json:"payload"`
}

type ResponseRequest struct {
	GroupNodeRequest
	Share string `json:"share"`
}

type ComplaintRequest struct {
	Owner  uint64        `json:"owner"`
	Schain types.GroupID `json:"schain"`
	From   types.NodeID  `json:"from"`
	To     types.NodeID  `json:"to"`
}

type MaintenanceRequest struct {
	NodeRequest
	On bool `json:"on"`
}

type RegisterNodeRequest struct {
	Name  string `json:"name"`
	Owner uint64 `json:"owner"`
	Space uint8  `json:"space"`
}

type CreateSchainRequest struct {
	Name       string         `json:"name"`
	PartOfNode uint8          `json:"part_of_node"`
	Members    []types.NodeID `json:"members"`
	Size       int            `json:"size"`
}

// Response writes the common envelope.
func Response(c *gin.Context, status int, err error, data interface{}) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"err":  msg,
		"code": string(types.CodeOf(err)),
		"data": data,
	})
}

// statusOf maps a rejection code to its HTTP status.
func statusOf(err error) int {
	switch types.CodeOf(err) {
	case "":
		return http.StatusInternalServerError
	case types.CodeUnauthorized:
		return http.StatusForbidden
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeNotEligible:
		return http.StatusUnprocessableEntity
	case types.CodeRotationBlocked:
		return http.StatusLocked
	case types.CodeTimeoutNotElapsed:
		return http.StatusTooEarly
	default:
		return http.StatusConflict
	}
}

func reply(c *gin.Context, err error, data interface{}) {
	if err != nil {
		Response(c, statusOf(err), err, data)
		return
	}
	Response(c, http.StatusOK, nil, data)
}

func badRequest(c *gin.Context, err error) {
	Response(c, http.StatusBadRequest, err, nil)
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
}

// schainParam accepts either the hex id or the schain name.
func schainParam(c *gin.Context) (types.GroupID, error) {
	if id := c.Query("schain"); id != "" {
		return types.HexToGroupID(id)
	}
	if name := c.Query("name"); name != "" {
		return types.GroupIDFromName(name), nil
	}
	return types.GroupID{}, fmt.Errorf("schain or name is required")
}

func nodeParam(c *gin.Context) (types.NodeID, error) {
	v, err := strconv.ParseUint(c.Query("node"), 10, 64)
	if err != nil {
		return types.NoNode, fmt.Errorf("bad node id: %v", err)
	}
	return types.NodeID(v), nil
}

func (r *RpcController) Status(c *gin.Context) {
	cors(c)
	data := gin.H{
		"service":    r.Service.Stats(),
		"goroutines": goroutine.Running(),
	}
	if r.Events != nil {
		data["events"] = r.Events.Counts()
	}
	Response(c, http.StatusOK, nil, data)
}

func (r *RpcController) Node(c *gin.Context) {
	cors(c)
	n, err := nodeParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetNode(n)
	reply(c, err, v)
}

func (r *RpcController) Nodes(c *gin.Context) {
	cors(c)
	Response(c, http.StatusOK, nil, r.Service.Nodes())
}

func (r *RpcController) Schain(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetGroup(g)
	reply(c, err, v)
}

func (r *RpcController) Schains(c *gin.Context) {
	cors(c)
	Response(c, http.StatusOK, nil, r.Service.Groups())
}

func (r *RpcController) SchainMembers(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetGroupMembers(g)
	reply(c, err, v)
}

func (r *RpcController) NodeSchains(c *gin.Context) {
	cors(c)
	n, err := nodeParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	Response(c, http.StatusOK, nil, r.Service.GroupsOf(n))
}

func (r *RpcController) Rotation(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetRotation(g)
	reply(c, err, v)
}

func (r *RpcController) RotationHistory(c *gin.Context) {
	cors(c)
	n, err := nodeParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetRotationHistory(n)
	reply(c, err, v)
}

func (r *RpcController) Session(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.GetSession(g)
	reply(c, err, v)
}

func (r *RpcController) Complaint(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, ok := r.Service.GetComplaint(g)
	if !ok {
		Response(c, http.StatusOK, nil, nil)
		return
	}
	Response(c, http.StatusOK, nil, v)
}

func (r *RpcController) groupAndNode(c *gin.Context) (types.GroupID, types.NodeID, bool) {
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return g, types.NoNode, false
	}
	n, err := nodeParam(c)
	if err != nil {
		badRequest(c, err)
		return g, n, false
	}
	return g, n, true
}

func (r *RpcController) IsBroadcastPossible(c *gin.Context) {
	cors(c)
	g, n, ok := r.groupAndNode(c)
	if !ok {
		return
	}
	Response(c, http.StatusOK, nil, r.Service.IsBroadcastPossible(g, n, nil))
}

func (r *RpcController) IsAcceptPossible(c *gin.Context) {
	cors(c)
	g, n, ok := r.groupAndNode(c)
	if !ok {
		return
	}
	Response(c, http.StatusOK, nil, r.Service.IsAcceptPossible(g, n))
}

func (r *RpcController) IsChannelOpened(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	Response(c, http.StatusOK, nil, r.Service.IsChannelOpened(g))
}

func (r *RpcController) IsLastDKGSuccessful(c *gin.Context) {
	cors(c)
	g, err := schainParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	Response(c, http.StatusOK, nil, r.Service.IsLastDKGSuccessful(g))
}

func (r *RpcController) IsRotationPossible(c *gin.Context) {
	cors(c)
	g, n, ok := r.groupAndNode(c)
	if !ok {
		return
	}
	err := r.Service.IsRotationPossible(g, n)
	if err != nil && types.CodeOf(err) != types.CodeRotationBlocked && types.CodeOf(err) != types.CodeInvalidState {
		reply(c, err, nil)
		return
	}
	data := gin.H{"possible": err == nil}
	if err != nil {
		data["reason"] = err.Error()
	}
	Response(c, http.StatusOK, nil, data)
}

func (r *RpcController) Snapshot(c *gin.Context) {
	cors(c)
	Response(c, http.StatusOK, nil, r.Service.Snapshot())
}

func (r *RpcController) RegisterNode(c *gin.Context) {
	var req RegisterNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.RegisterNode(req.Name, req.Owner, req.Space)
	reply(c, err, v)
}

func (r *RpcController) CreateSchain(c *gin.Context) {
	var req CreateSchainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := r.Service.CreateGroup(req.Name, req.PartOfNode, req.Members, req.Size)
	reply(c, err, v)
}

type RemoveSchainRequest struct {
	Schain types.GroupID `json:"schain"`
	Name   string        `json:"name"`
}

func (r *RpcController) RemoveSchain(c *gin.Context) {
	var req RemoveSchainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g := req.Schain
	if req.Name != "" {
		g = types.GroupIDFromName(req.Name)
	}
	reply(c, r.Service.RemoveGroup(g), nil)
}

func (r *RpcController) Maintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply(c, r.Service.SetMaintenance(req.Owner, req.Node, req.On), nil)
}

func (r *RpcController) NodeExit(c *gin.Context) {
	var req NodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := r.Service.RequestNodeExit(c.Request.Context(), req.Owner, req.Node)
	reply(c, err, report)
}

func (r *RpcController) CompleteExit(c *gin.Context) {
	var req NodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply(c, r.Service.CompleteExit(req.Owner, req.Node), nil)
}

func (r *RpcController) Broadcast(c *gin.Context) {
	var req PayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply(c, r.Service.Broadcast(req.Owner, req.Schain, req.Node, req.Payload), nil)
}

func (r *RpcController) Alright(c *gin.Context) {
	var req GroupNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply(c, r.Service.AcceptRound(req.Owner, req.Schain, req.Node), nil)
}

func (r *RpcController) FileComplaint(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := r.Service.FileComplaint(c.Request.Context(), req.Owner, req.Schain, req.From, req.To)
	reply(c, err, out)
}

func (r *RpcController) FileComplaintBadData(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := r.Service.FileComplaintBadData(c.Request.Context(), req.Owner, req.Schain, req.From, req.To)
	reply(c, err, out)
}

func (r *RpcController) PreResponse(c *gin.Context) {
	var req PayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply(c, r.Service.PreResponse(req.Owner, req.Schain, req.Node, req.Payload), nil)
}

func (r *RpcController) ShareResponse(c *gin.Context) {
	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	share, err := hex.DecodeString(req.Share)
	if err != nil {
		badRequest(c, fmt.Errorf("bad share: %v", err))
		return
	}
	out, err := r.Service.Response(c.Request.Context(), req.Owner, req.Schain, req.Node, share)
	reply(c, err, out)
}
