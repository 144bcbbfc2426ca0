// Command ckpt checkpoints, restores, and inspects a ping-pong simulation.
package main

import "github.com/sarchlab/ckpt/ckpt/cmd"

func main() {
	cmd.Execute()
}
