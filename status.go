package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gr-butler/vemat/node"
	logger "github.com/sirupsen/logrus"
)

type snapshotter interface {
	Snapshot() node.Snapshot
}

type webdata struct {
	TimeNow string `json:"time"`
	Version string `json:"version"`
	node.Snapshot
}

func statusHandler(n snapshotter) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		wd := webdata{
			TimeNow:  time.Now().UTC().Format(time.RFC822),
			Version:  version,
			Snapshot: n.Snapshot(),
		}

		js, err := json.Marshal(wd)
		if err != nil {
			logger.Errorf("JSON error [%v]", err)
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}

		logger.Debugf("Web read: \n[%v]", string(js))
		_, _ = rw.Write(js) // not much we can do if this fails
	}
}
