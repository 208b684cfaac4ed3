package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/store"
)

func newRunsCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs on a drover server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://127.0.0.1:7230", "Drover server address")

	list := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet(server + "/v1/runs")
			if err != nil {
				return err
			}
			var records []store.RunRecord
			if err := json.Unmarshal(body, &records); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tITERATIONS\tAGE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					r.ID, r.Status, r.Iterations, time.Since(r.CreatedAt).Round(time.Second))
			}
			return w.Flush()
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a run record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet(server + "/v1/runs/" + args[0])
			if err != nil {
				return err
			}
			return printJSON(body)
		},
	}

	events := &cobra.Command{
		Use:   "events <id>",
		Short: "Show a run's audit events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet(server + "/v1/runs/" + args[0] + "/events")
			if err != nil {
				return err
			}
			return printJSON(body)
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a live run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Post(server+"/v1/runs/"+args[0]+"/cancel", "application/json", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("server returned %s: %s", resp.Status, body)
			}
			fmt.Printf("Run %s cancelling\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, events, cancel)
	return cmd
}

func apiGet(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, body)
	}
	return body, nil
}

func printJSON(body []byte) error {
	var buf any
	if err := json.Unmarshal(body, &buf); err != nil {
		return err
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
