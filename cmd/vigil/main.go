package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
	"github.com/vigil-network/vigil-daemon/pkg/httpauth"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
)

var (
	vigilDataDir = btcutil.AppDataDir("vigil-operator", false)
	statePath    = path.Join(vigilDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = formatVersion()
	app.Name = "vigil CLI"
	app.Usage = "Command line interface for vigild daemon operators and screeners"
	app.Commands = append(
		app.Commands,
		&configCmd,
		&keygen,
		&info,
		&access,
		&watchlist,
		&screening,
		&webhook,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	//nolint
	json.Unmarshal(file, &data)

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(vigilDataDir); os.IsNotExist(err) {
		//nolint
		os.Mkdir(vigilDataDir, os.ModeDir|0755)
	}

	file, err := os.OpenFile(statePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		return err
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// doRequest sends a request to the daemon, attaching the macaroon and the
// request signature when the local state carries the credentials.
func doRequest(method, apiPath string, body interface{}) ([]byte, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state["rpcserver"]
	if !ok {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}

	var buf []byte
	if body != nil {
		buf, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, address+apiPath, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	if mac := state["macaroon"]; mac != "" {
		req.Header.Set(macaroons.AuthHeader, mac)
	}
	if keyHex := state["privatekey"]; keyHex != "" {
		prvKey, err := httpauth.ParsePrivateKey(keyHex)
		if err != nil {
			return nil, err
		}
		httpauth.SignRequest(req, buf, prvKey)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to the daemon: %v", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, parseDaemonError(res.StatusCode, resBody)
	}
	return resBody, nil
}

func parseDaemonError(statusCode int, body []byte) error {
	errRes := struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{}
	if err := json.Unmarshal(body, &errRes); err != nil || errRes.Message == "" {
		return fmt.Errorf("daemon replied with status %d", statusCode)
	}
	return fmt.Errorf("%s: %s", errRes.Code, errRes.Message)
}

func printRespJSON(resp []byte) {
	if len(resp) == 0 {
		fmt.Println("ok")
		return
	}
	out := &bytes.Buffer{}
	if err := json.Indent(out, resp, "", "\t"); err != nil {
		fmt.Println(string(resp))
		return
	}
	fmt.Println(out.String())
}

func formatVersion() string {
	return fmt.Sprintf("%s (commit %s, date %s)", version, commit, date)
}

// Build info, overridden at link time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[vigil] %v\n", err)
	}
	os.Exit(1)
}
