// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package root

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splash-engine/splash/value"
)

// messageRequest is the JSON shape POSTed to /message: the same
// (target, attribute, args) triple a Link carries, just over HTTP.
type messageRequest struct {
	Target    string        `json:"target" binding:"required"`
	Attribute string        `json:"attribute" binding:"required"`
	Args      []jsonArg `json:"args"`
}

// jsonArg is args[i]'s JSON projection. Only the kinds meaningful as a
// caller-supplied attribute argument are accepted over HTTP; buffers and
// nested lists go over a Link's binary path instead.
type jsonArg struct {
	Bool   *bool    `json:"bool,omitempty"`
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	String *string  `json:"string,omitempty"`
}

func (a jsonArg) toValue() value.Value {
	switch {
	case a.Bool != nil:
		return value.Bool(*a.Bool)
	case a.Int != nil:
		return value.Int(*a.Int)
	case a.Float != nil:
		return value.Float(*a.Float)
	case a.String != nil:
		return value.String(*a.String)
	default:
		return value.Empty()
	}
}

// Handler builds a gin.Engine exposing POST /message, decoding its JSON
// body and calling Set -- no new semantics beyond the internal Message
// path, just another ingress (§6.1).
func (w *World) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/message", w.handleMessage)
	return engine
}

func (w *World) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	args := make([]value.Value, 0, len(req.Args))
	for _, a := range req.Args {
		args = append(args, a.toValue())
	}
	ok := w.Set(req.Target, req.Attribute, args, false)
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}
