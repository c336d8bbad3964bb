package rpc

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (rpc *RpcController) NewRouter() *gin.Engine {
	router := gin.New()
	if logrus.GetLevel() > logrus.DebugLevel {
		logger := gin.LoggerWithConfig(gin.LoggerConfig{
			Formatter: ginLogFormatter,
			Output:    logrus.StandardLogger().Out,
			SkipPaths: []string{"/"},
		})
		router.Use(logger)
	}
	router.Use(gin.RecoveryWithWriter(logrus.StandardLogger().Out))
	return rpc.addRouter(router)
}

// getRoutes lists the query endpoints and their arguments.
var getRoutes = map[string]string{
	"status":                 "",
	"nodes":                  "",
	"schains":                "",
	"snapshot":               "",
	"node":                   "node",
	"node_schains":           "node",
	"rotation_history":       "node",
	"schain":                 "schain",
	"schain_members":         "schain",
	"rotation":               "schain",
	"session":                "schain",
	"complaint":              "schain",
	"is_channel_opened":      "schain",
	"is_last_dkg_successful": "schain",
	"is_broadcast_possible":  "schain,node",
	"is_accept_possible":     "schain,node",
	"is_rotation_possible":   "schain,node",
}

func (rpc *RpcController) addRouter(router *gin.Engine) *gin.Engine {
	router.GET("/", rpc.writeListOfEndpoints)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("status", rpc.Status)
	router.GET("nodes", rpc.Nodes)
	router.GET("schains", rpc.Schains)
	router.GET("snapshot", rpc.Snapshot)
	router.GET("node", rpc.Node)
	router.GET("node_schains", rpc.NodeSchains)
	router.GET("rotation_history", rpc.RotationHistory)
	router.GET("schain", rpc.Schain)
	router.GET("schain_members", rpc.SchainMembers)
	router.GET("rotation", rpc.Rotation)
	router.GET("session", rpc.Session)
	router.GET("complaint", rpc.Complaint)
	router.GET("is_channel_opened", rpc.IsChannelOpened)
	router.GET("is_last_dkg_successful", rpc.IsLastDKGSuccessful)
	router.GET("is_broadcast_possible", rpc.IsBroadcastPossible)
	router.GET("is_accept_possible", rpc.IsAcceptPossible)
	router.GET("is_rotation_possible", rpc.IsRotationPossible)

	// administration
	router.POST("register_node", rpc.RegisterNode)
	router.POST("create_schain", rpc.CreateSchain)
	router.POST("remove_schain", rpc.RemoveSchain)
	router.POST("maintenance", rpc.Maintenance)

	// node operations
	router.POST("node_exit", rpc.NodeExit)
	router.POST("complete_exit", rpc.CompleteExit)
	router.POST("broadcast", rpc.Broadcast)
	router.POST("alright", rpc.Alright)
	router.POST("complaint", rpc.FileComplaint)
	router.POST("complaint_bad_data", rpc.FileComplaintBadData)
	router.POST("pre_response", rpc.PreResponse)
	router.POST("response", rpc.ShareResponse)
	return router
}

// writes a list of available rpc endpoints as an html page
func (rpc *RpcController) writeListOfEndpoints(c *gin.Context) {
	noArgNames := []string{}
	argNames := []string{}
	for name, args := range getRoutes {
		if len(args) == 0 {
			noArgNames = append(noArgNames, name)
		} else {
			argNames = append(argNames, name)
		}
	}
	sort.Strings(noArgNames)
	sort.Strings(argNames)
	buf := new(bytes.Buffer)
	buf.WriteString("<html><body>")
	buf.WriteString("<br>Available endpoints:<br>")

	for _, name := range noArgNames {
		link := fmt.Sprintf("http://%s/%s", c.Request.Host, name)
		buf.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a></br>", link, link))
	}

	buf.WriteString("<br>Endpoints that require arguments:<br>")
	for _, name := range argNames {
		link := fmt.Sprintf("http://%s/%s?", c.Request.Host, name)
		args := strings.Split(getRoutes[name], ",")
		for i, arg := range args {
			link += arg + "=_"
			if i < len(args)-1 {
				link += "&"
			}
		}
		buf.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a></br>", link, link))
	}
	buf.WriteString("</body></html>")
	c.Data(http.StatusOK, "text/html", buf.Bytes())
}
