package cache

import (
	"fmt"

	"github.com/gomodule/redigo/redis"
)

func Del(conn redis.Conn, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := conn.Do("DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

// Tx queues each command with Send inside MULTI/EXEC so the writes land
// together.
func Tx(conn redis.Conn, cmds ...redis.Args) error {
	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	for _, cmd := range cmds {
		if len(cmd) == 0 {
			continue
		}
		name, ok := cmd[0].(string)
		if !ok {
			return fmt.Errorf("tx: command name %v is not a string", cmd[0])
		}
		if err := conn.Send(name, cmd[1:]...); err != nil {
			return err
		}
	}
	_, err := conn.Do("EXEC")
	return err
}
