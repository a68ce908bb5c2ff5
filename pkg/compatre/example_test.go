package compatre_test

import (
	"context"
	"fmt"

	"github.com/bft-labs/compatre/pkg/compatre"
)

// ExampleNew demonstrates how to create an instance for a running host.
func ExampleNew() {
	c, err := compatre.New(compatre.Config{
		HostPackage: "org.bukkit.craftbukkit.v1_16_R2",
	})
	if err != nil {
		fmt.Printf("failed to create compatre: %v\n", err)
		return
	}

	version, err := c.Version()
	if err != nil {
		fmt.Printf("unsupported host: %v\n", err)
		return
	}
	fmt.Println("host version:", version)

	// Output: host version: v1_16_R2
}

// ExampleCompatre_Transform shows that modules without the marker pass
// through unchanged.
func ExampleCompatre_Transform() {
	c, err := compatre.New(compatre.DefaultConfig(), compatre.WithProbe(func() (string, error) {
		return "org.bukkit.craftbukkit.v1_20_R3", nil
	}))
	if err != nil {
		fmt.Println(err)
		return
	}

	in := []byte("not a marked module")
	out, err := c.Transform(in)
	fmt.Println(string(out), err)

	// Output: not a marked module <nil>
}

// Example_lifecycle demonstrates starting and stopping an instance.
func Example_lifecycle() {
	c, err := compatre.New(compatre.Config{HostPackage: "org.bukkit.craftbukkit.v1_8_R3"})
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := c.Start(context.Background()); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(c.Status())

	_ = c.Stop()
	fmt.Println(c.Status())

	// Output:
	// Running
	// Stopped
}
